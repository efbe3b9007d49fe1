package chatbot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "paco-bot/backend/pkg/errors"

	"go.uber.org/zap"
)

// ChannelConfig holds per-channel chatbot settings
type ChannelConfig struct {
	Enabled        bool    `json:"enabled"`
	Behavior       string  `json:"behavior"`
	Responsiveness float64 `json:"responsiveness"`
}

// Personality holds the global personality sliders applied to system prompts
type Personality struct {
	Humor      int `json:"humor"`
	Formality  int `json:"formality"`
	Verbosity  int `json:"verbosity"`
	EmojiUsage int `json:"emoji_usage"`
}

// Config is the process-wide chatbot configuration. It is loaded from disk at
// startup, mutated through admin commands, and written back after each mutation.
// The file format carries no version field; schema changes are manual edits.
type Config struct {
	Enabled            bool                     `json:"enabled"`
	RespondToQuestions bool                     `json:"respond_to_questions"`
	Channels           map[string]ChannelConfig `json:"channels"`
	TriggerKeywords    []string                 `json:"trigger_keywords"`
	Personality        Personality              `json:"personality"`
	RandomChannels     []string                 `json:"random_channels"`
	RandomProbability  float64                  `json:"random_probability"`
}

// DefaultConfig returns the configuration used when no file exists yet
func DefaultConfig() *Config {
	return &Config{
		Enabled:            true,
		RespondToQuestions: true,
		Channels:           make(map[string]ChannelConfig),
		TriggerKeywords:    []string{"paco", "hey bot"},
		Personality: Personality{
			Humor:      6,
			Formality:  3,
			Verbosity:  5,
			EmojiUsage: 4,
		},
		RandomChannels:    []string{},
		RandomProbability: 0.05,
	}
}

// ConfigStore owns the chatbot configuration and its file persistence.
// Constructed once at startup and passed to handlers by reference.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	cfg    *Config
	logger *zap.Logger
}

// NewConfigStore loads the config file from dataDir, falling back to defaults
// when the file is missing or unreadable
func NewConfigStore(dataDir string, logger *zap.Logger) *ConfigStore {
	s := &ConfigStore{
		path:   filepath.Join(dataDir, "chatbot_config.json"),
		cfg:    DefaultConfig(),
		logger: logger,
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read chatbot config, using defaults",
				zap.String("path", s.path),
				zap.Error(err),
			)
		}
		return s
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Warn("Failed to parse chatbot config, using defaults",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return s
	}
	if cfg.Channels == nil {
		cfg.Channels = make(map[string]ChannelConfig)
	}
	s.cfg = &cfg
	logger.Info("Loaded chatbot config",
		zap.String("path", s.path),
		zap.Int("channels", len(cfg.Channels)),
	)
	return s
}

// Get returns a copy of the current configuration
func (s *ConfigStore) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := *s.cfg
	cfg.Channels = make(map[string]ChannelConfig, len(s.cfg.Channels))
	for k, v := range s.cfg.Channels {
		cfg.Channels[k] = v
	}
	cfg.TriggerKeywords = append([]string(nil), s.cfg.TriggerKeywords...)
	cfg.RandomChannels = append([]string(nil), s.cfg.RandomChannels...)
	return cfg
}

// ChannelEnabled reports whether the chatbot should engage in the given
// channel. Channels without an explicit entry inherit the global flag.
func (s *ConfigStore) ChannelEnabled(channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.cfg.Enabled {
		return false
	}
	if cc, ok := s.cfg.Channels[channelID]; ok {
		return cc.Enabled
	}
	return true
}

// Update applies fn to the configuration and persists the result synchronously
func (s *ConfigStore) Update(fn func(cfg *Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.cfg)
	return s.saveLocked()
}

// SetChannel updates a single channel's settings and persists
func (s *ConfigStore) SetChannel(channelID string, cc ChannelConfig) error {
	return s.Update(func(cfg *Config) {
		cfg.Channels[channelID] = cc
	})
}

func (s *ConfigStore) saveLocked() error {
	data, err := json.MarshalIndent(s.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chatbot config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperrors.NewMemorySaveFailed(s.path, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		// Keep serving the in-memory config; persistence failure is degraded
		// mode, not a request failure
		s.logger.Error("Failed to persist chatbot config",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return apperrors.NewMemorySaveFailed(s.path, err)
	}
	return nil
}
