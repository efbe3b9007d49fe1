package chatbot

import (
	"context"

	"paco-bot/backend/internal/hub"
	apperrors "paco-bot/backend/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Request carries everything a provider needs to answer one message
type Request struct {
	AgentID      string
	ChannelID    string
	ChannelName  string
	UserID       string
	Prompt       string
	SystemPrompt string
}

// Provider is one backend in the response chain. A provider either returns a
// non-empty response or an error; the chain advances on error.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// HubProvider answers through the Paco Hub's agent orchestration endpoint.
// It is the primary backend in the chain.
type HubProvider struct {
	client *hub.Client
}

// NewHubProvider wraps a Hub client as a chain provider
func NewHubProvider(client *hub.Client) *HubProvider {
	return &HubProvider{client: client}
}

func (p *HubProvider) Name() string { return "hub" }

func (p *HubProvider) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.Interact(ctx, hub.InteractRequest{
		AgentID:      req.AgentID,
		Message:      req.Prompt,
		SystemPrompt: req.SystemPrompt,
		Context:      req.ChannelName,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// OpenAIProvider calls an OpenAI-compatible chat-completion endpoint directly
// with a fixed model. Both direct providers in the chain use this type; the
// secondary one points at a different base URL.
type OpenAIProvider struct {
	name   string
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIProvider creates a direct provider against api.openai.com
func NewOpenAIProvider(name, apiKey, model string, logger *zap.Logger) *OpenAIProvider {
	return &OpenAIProvider{
		name:   name,
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// NewCompatibleProvider creates a direct provider against an OpenAI-compatible
// base URL (e.g. Groq)
func NewCompatibleProvider(name, baseURL, apiKey, model string, logger *zap.Logger) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL + "/v1"
	return &OpenAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", apperrors.NewProviderFailed(p.name, p.model, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperrors.ErrProviderEmptyResponse
	}

	p.logger.Debug("Direct provider responded",
		zap.String("provider", p.name),
		zap.String("model", p.model),
	)
	return resp.Choices[0].Message.Content, nil
}
