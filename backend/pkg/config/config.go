package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "paco-bot/backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// App
	Env       string
	DataDir   string
	AdminPort string

	// Discord
	DiscordBotToken string
	CommandPrefix   string

	// Paco Hub
	HubURL        string
	HubAPIKey     string
	HubTimeout    time.Duration
	HubRatePerSec float64

	// Direct LLM providers (both optional; used as chain fallbacks)
	ProviderAAPIKey string
	ProviderAModel  string
	ProviderBAPIKey string
	ProviderBURL    string
	ProviderBModel  string

	// Chatbot pipeline
	RateLimitWindow   time.Duration
	RateLimitMax      int
	ResponseCacheTTL  time.Duration
	ResponseCacheSize int

	// Community features
	WelcomeChannelID string
	BannedWords      []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Env:       getEnv("ENV", "development"),
		DataDir:   getEnv("DATA_DIR", "data"),
		AdminPort: getEnv("ADMIN_PORT", "8090"),

		DiscordBotToken: getEnv("DISCORD_BOT_TOKEN", ""),
		CommandPrefix:   getEnv("COMMAND_PREFIX", "!"),

		HubURL:        getEnv("HUB_URL", "http://localhost:3000"),
		HubAPIKey:     getEnv("HUB_API_KEY", ""),
		HubTimeout:    getEnvDuration("HUB_TIMEOUT", 30*time.Second),
		HubRatePerSec: getEnvFloat("HUB_RATE_PER_SEC", 5),

		ProviderAAPIKey: getEnv("PROVIDER_A_API_KEY", ""),
		ProviderAModel:  getEnv("PROVIDER_A_MODEL", "gpt-4o-mini"),
		ProviderBAPIKey: getEnv("PROVIDER_B_API_KEY", ""),
		ProviderBURL:    getEnv("PROVIDER_B_URL", "https://api.groq.com/openai"),
		ProviderBModel:  getEnv("PROVIDER_B_MODEL", "llama-3.1-8b-instant"),

		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:      getEnvInt("RATE_LIMIT_MAX", 10),
		ResponseCacheTTL:  getEnvDuration("RESPONSE_CACHE_TTL", 5*time.Minute),
		ResponseCacheSize: getEnvInt("RESPONSE_CACHE_SIZE", 100),

		WelcomeChannelID: getEnv("WELCOME_CHANNEL_ID", ""),
		BannedWords:      getEnvList("MODERATION_BANNED_WORDS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.HubURL == "" {
		return apperrors.NewConfigValidationFailed("HUB_URL", "required")
	}
	if c.RateLimitMax <= 0 {
		return apperrors.NewConfigValidationFailed("RATE_LIMIT_MAX", "must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return apperrors.NewConfigValidationFailed("RATE_LIMIT_WINDOW", "must be positive")
	}
	// Provider keys and Discord token are optional for development
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}
