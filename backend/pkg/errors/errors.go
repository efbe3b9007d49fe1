package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeDiscord represents Discord-related errors
	ErrorTypeDiscord ErrorType = "discord"
	// ErrorTypeHub represents Paco Hub API errors
	ErrorTypeHub ErrorType = "hub"
	// ErrorTypeProvider represents direct LLM provider errors
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeChatbot represents response-pipeline errors
	ErrorTypeChatbot ErrorType = "chatbot"
	// ErrorTypeMemory represents memory persistence errors
	ErrorTypeMemory ErrorType = "memory"
	// ErrorTypeGame represents game session errors
	ErrorTypeGame ErrorType = "game"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrType returns the error's category
func (e *BaseError) ErrType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Hub Errors

// ErrHubUnavailable is returned when the Hub API cannot be reached
var ErrHubUnavailable = NewBaseError(ErrorTypeHub, "hub API not reachable", nil)

// ErrHubRequestFailed is returned when a Hub call returns a non-2xx status
type ErrHubRequestFailed struct {
	*BaseError
	Endpoint   string
	StatusCode int
}

func NewHubRequestFailed(endpoint string, statusCode int, err error) *ErrHubRequestFailed {
	return &ErrHubRequestFailed{
		BaseError:  NewBaseError(ErrorTypeHub, fmt.Sprintf("hub request failed: %s (status %d)", endpoint, statusCode), err),
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// Provider Errors

// ErrProviderFailed is returned when a direct LLM provider call fails
type ErrProviderFailed struct {
	*BaseError
	Provider string
	Model    string
}

func NewProviderFailed(provider, model string, err error) *ErrProviderFailed {
	return &ErrProviderFailed{
		BaseError: NewBaseError(ErrorTypeProvider, fmt.Sprintf("provider %s request failed", provider), err),
		Provider:  provider,
		Model:     model,
	}
}

// ErrProviderEmptyResponse is returned when a provider returns no choices
var ErrProviderEmptyResponse = NewBaseError(ErrorTypeProvider, "provider returned empty response", nil)

// Chatbot Errors

// ErrRateLimited is returned when a user exceeds the per-user request limit
type ErrRateLimited struct {
	*BaseError
	UserID     string
	RetryAfter time.Duration
}

func NewRateLimited(userID string, retryAfter time.Duration) *ErrRateLimited {
	return &ErrRateLimited{
		BaseError:  NewBaseError(ErrorTypeChatbot, fmt.Sprintf("rate limited: %s", userID), nil),
		UserID:     userID,
		RetryAfter: retryAfter,
	}
}

// ErrChannelDisabled is returned when the chatbot is disabled for a channel
type ErrChannelDisabled struct {
	*BaseError
	ChannelID string
}

func NewChannelDisabled(channelID string) *ErrChannelDisabled {
	return &ErrChannelDisabled{
		BaseError: NewBaseError(ErrorTypeChatbot, fmt.Sprintf("chatbot disabled for channel: %s", channelID), nil),
		ChannelID: channelID,
	}
}

// Memory Errors

// ErrMemoryLoadFailed is returned when a memory file cannot be read or parsed
type ErrMemoryLoadFailed struct {
	*BaseError
	Path string
}

func NewMemoryLoadFailed(path string, err error) *ErrMemoryLoadFailed {
	return &ErrMemoryLoadFailed{
		BaseError: NewBaseError(ErrorTypeMemory, fmt.Sprintf("failed to load memory file: %s", path), err),
		Path:      path,
	}
}

// ErrMemorySaveFailed is returned when a memory file cannot be written
type ErrMemorySaveFailed struct {
	*BaseError
	Path string
}

func NewMemorySaveFailed(path string, err error) *ErrMemorySaveFailed {
	return &ErrMemorySaveFailed{
		BaseError: NewBaseError(ErrorTypeMemory, fmt.Sprintf("failed to save memory file: %s", path), err),
		Path:      path,
	}
}

// Game Errors

// ErrGameInProgress is returned when starting a game that is already active in a channel
type ErrGameInProgress struct {
	*BaseError
	GameType  string
	ChannelID string
}

func NewGameInProgress(gameType, channelID string) *ErrGameInProgress {
	return &ErrGameInProgress{
		BaseError: NewBaseError(ErrorTypeGame, fmt.Sprintf("%s game already in progress in channel %s", gameType, channelID), nil),
		GameType:  gameType,
		ChannelID: channelID,
	}
}

// ErrNoActiveGame is returned when interacting with a game that does not exist
type ErrNoActiveGame struct {
	*BaseError
	GameType  string
	ChannelID string
}

func NewNoActiveGame(gameType, channelID string) *ErrNoActiveGame {
	return &ErrNoActiveGame{
		BaseError: NewBaseError(ErrorTypeGame, fmt.Sprintf("no active %s game in channel %s", gameType, channelID), nil),
		GameType:  gameType,
		ChannelID: channelID,
	}
}

// ErrInvalidGameType is returned when a game type string fails validation at the boundary
type ErrInvalidGameType struct {
	*BaseError
	Value string
}

func NewInvalidGameType(value string) *ErrInvalidGameType {
	return &ErrInvalidGameType{
		BaseError: NewBaseError(ErrorTypeGame, fmt.Sprintf("invalid game type: %s", value), nil),
		Value:     value,
	}
}

// Discord Errors

// ErrDiscordMessageSendFailed is returned when sending a Discord message fails
type ErrDiscordMessageSendFailed struct {
	*BaseError
	ChannelID string
}

func NewDiscordMessageSendFailed(channelID string, err error) *ErrDiscordMessageSendFailed {
	return &ErrDiscordMessageSendFailed{
		BaseError: NewBaseError(ErrorTypeDiscord, "failed to send message", err),
		ChannelID: channelID,
	}
}

// ErrDiscordPermissionDenied is returned when the bot lacks a required permission
type ErrDiscordPermissionDenied struct {
	*BaseError
	Action    string
	ChannelID string
}

func NewDiscordPermissionDenied(action, channelID string, err error) *ErrDiscordPermissionDenied {
	return &ErrDiscordPermissionDenied{
		BaseError: NewBaseError(ErrorTypeDiscord, fmt.Sprintf("missing permission for %s", action), err),
		Action:    action,
		ChannelID: channelID,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type. Typed errors
// embedding *BaseError are matched through the promoted ErrType method.
func IsErrorType(err error, errType ErrorType) bool {
	if typed, ok := err.(interface{ ErrType() ErrorType }); ok {
		return typed.ErrType() == errType
	}
	// Check wrapped errors
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		inner := wrapped.Unwrap()
		if inner == nil {
			return false
		}
		return IsErrorType(inner, errType)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	// Hub and provider failures are transient: the chain advances instead of
	// retrying, but callers outside the chain may retry them
	if IsErrorType(err, ErrorTypeHub) || IsErrorType(err, ErrorTypeProvider) {
		return true
	}
	return false
}
