package config

import (
	"testing"
	"time"

	apperrors "paco-bot/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "development" {
		t.Errorf("expected development env, got %q", cfg.Env)
	}
	if cfg.AdminPort != "8090" {
		t.Errorf("unexpected admin port: %q", cfg.AdminPort)
	}
	if cfg.CommandPrefix != "!" {
		t.Errorf("unexpected prefix: %q", cfg.CommandPrefix)
	}
	if cfg.RateLimitMax != 10 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("unexpected rate limit defaults: %d per %s", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.BannedWords != nil {
		t.Errorf("expected no banned words by default, got %v", cfg.BannedWords)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("HUB_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_MAX", "3")
	t.Setenv("MODERATION_BANNED_WORDS", "foo, bar ,,baz")
	t.Setenv("WELCOME_CHANNEL_ID", "chan-42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Errorf("expected production mode, got env %q", cfg.Env)
	}
	if cfg.HubTimeout != 5*time.Second {
		t.Errorf("unexpected hub timeout: %s", cfg.HubTimeout)
	}
	if cfg.RateLimitMax != 3 {
		t.Errorf("unexpected rate limit max: %d", cfg.RateLimitMax)
	}
	if len(cfg.BannedWords) != 3 || cfg.BannedWords[0] != "foo" || cfg.BannedWords[2] != "baz" {
		t.Errorf("unexpected banned words: %v", cfg.BannedWords)
	}
	if cfg.WelcomeChannelID != "chan-42" {
		t.Errorf("unexpected welcome channel: %q", cfg.WelcomeChannelID)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "not-a-number")
	t.Setenv("HUB_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.RateLimitMax != 10 {
		t.Errorf("expected default on bad int, got %d", cfg.RateLimitMax)
	}
	if cfg.HubTimeout != 30*time.Second {
		t.Errorf("expected default on bad duration, got %s", cfg.HubTimeout)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{HubURL: "http://localhost:3000", RateLimitMax: 5, RateLimitWindow: time.Minute}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg.HubURL = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing hub URL")
	}
	if !apperrors.IsErrorType(err, apperrors.ErrorTypeConfig) {
		t.Errorf("expected a config error, got %v", err)
	}

	cfg.HubURL = "http://localhost:3000"
	cfg.RateLimitMax = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive rate limit")
	}
}
