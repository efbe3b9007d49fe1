package chatbot

import (
	"testing"

	"go.uber.org/zap"
)

func TestConfigStore_DefaultsWhenFileMissing(t *testing.T) {
	store := NewConfigStore(t.TempDir(), zap.NewNop())

	cfg := store.Get()
	if !cfg.Enabled {
		t.Error("Default config should be enabled")
	}
	if len(cfg.TriggerKeywords) == 0 {
		t.Error("Default config should carry trigger keywords")
	}
	if cfg.RandomProbability <= 0 || cfg.RandomProbability >= 1 {
		t.Errorf("Default random probability out of range: %f", cfg.RandomProbability)
	}
}

func TestConfigStore_UpdatePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	store := NewConfigStore(dir, zap.NewNop())
	err := store.Update(func(cfg *Config) {
		cfg.TriggerKeywords = []string{"beep"}
		cfg.Personality.Humor = 9
		cfg.Channels["chan-1"] = ChannelConfig{Enabled: false}
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reloaded := NewConfigStore(dir, zap.NewNop())
	cfg := reloaded.Get()
	if len(cfg.TriggerKeywords) != 1 || cfg.TriggerKeywords[0] != "beep" {
		t.Errorf("Keywords not persisted: %v", cfg.TriggerKeywords)
	}
	if cfg.Personality.Humor != 9 {
		t.Errorf("Personality not persisted: %+v", cfg.Personality)
	}
	if reloaded.ChannelEnabled("chan-1") {
		t.Error("Channel override not persisted")
	}
}

func TestConfigStore_GetReturnsACopy(t *testing.T) {
	store := NewConfigStore(t.TempDir(), zap.NewNop())

	cfg := store.Get()
	cfg.Channels["mutated"] = ChannelConfig{Enabled: false}
	cfg.TriggerKeywords[0] = "mutated"

	fresh := store.Get()
	if _, ok := fresh.Channels["mutated"]; ok {
		t.Error("Mutating the returned map must not affect the store")
	}
	if fresh.TriggerKeywords[0] == "mutated" {
		t.Error("Mutating the returned slice must not affect the store")
	}
}

func TestConfigStore_ChannelEnabled(t *testing.T) {
	store := NewConfigStore(t.TempDir(), zap.NewNop())

	if !store.ChannelEnabled("unknown-chan") {
		t.Error("Channels without an entry inherit the global enabled flag")
	}

	if err := store.SetChannel("chan-off", ChannelConfig{Enabled: false}); err != nil {
		t.Fatalf("SetChannel failed: %v", err)
	}
	if store.ChannelEnabled("chan-off") {
		t.Error("Explicitly disabled channel should report disabled")
	}

	if err := store.Update(func(cfg *Config) { cfg.Enabled = false }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if store.ChannelEnabled("unknown-chan") {
		t.Error("Global kill switch should disable every channel")
	}
}
