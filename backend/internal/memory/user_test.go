package memory

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestUserStore_TouchBuildsProfile(t *testing.T) {
	s := NewUserStore(t.TempDir(), zap.NewNop())
	defer s.Close(context.Background())

	s.Touch("user-1", "alice", "chan-1", "question", "how do I fix this error?")
	s.Touch("user-1", "alice", "chan-2", "mentioned", "let's play trivia")

	mem := s.Get("user-1")
	if mem.MessageCount != 2 {
		t.Errorf("Expected 2 messages, got %d", mem.MessageCount)
	}
	if mem.FirstSeen.IsZero() || mem.LastSeen.Before(mem.FirstSeen) {
		t.Error("Timestamps not maintained")
	}
	if len(mem.RecentChannels) != 2 {
		t.Errorf("Expected 2 recent channels, got %v", mem.RecentChannels)
	}
	if len(mem.PreferredTopics) != 2 {
		t.Errorf("Expected support and games topics, got %v", mem.PreferredTopics)
	}
	if len(mem.Interactions) != 2 || mem.Interactions[1].Type != "mentioned" {
		t.Errorf("Interactions not recorded: %+v", mem.Interactions)
	}
}

func TestUserStore_SummaryForNewUser(t *testing.T) {
	s := NewUserStore(t.TempDir(), zap.NewNop())
	defer s.Close(context.Background())

	if got := s.Summary("never-seen"); got != "This user is new here." {
		t.Errorf("Unexpected new-user summary: %q", got)
	}
}

func TestUserStore_SummaryForActiveUser(t *testing.T) {
	s := NewUserStore(t.TempDir(), zap.NewNop())
	defer s.Close(context.Background())

	s.Touch("user-1", "alice", "chan-1", "question", "how do I fix this error?")
	summary := s.Summary("user-1")

	if !strings.Contains(summary, "alice") {
		t.Errorf("Summary should name the user: %q", summary)
	}
	if !strings.Contains(summary, "1 messages") {
		t.Errorf("Summary should carry the message count: %q", summary)
	}
	if !strings.Contains(summary, "support") {
		t.Errorf("Summary should mention preferred topics: %q", summary)
	}
	if !strings.Contains(summary, "question") {
		t.Errorf("Summary should mention the last interaction: %q", summary)
	}
}

func TestUserStore_SetPreference(t *testing.T) {
	s := NewUserStore(t.TempDir(), zap.NewNop())
	defer s.Close(context.Background())

	s.SetPreference("user-1", "language", "go")

	mem := s.Get("user-1")
	if mem.Preferences["language"] != "go" {
		t.Errorf("Preference not stored: %+v", mem.Preferences)
	}
}

func TestUserStore_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	s := NewUserStore(dir, zap.NewNop())
	s.Touch("user-1", "alice", "chan-1", "question", "hello")
	s.SetPreference("user-1", "tz", "UTC")
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reloaded := NewUserStore(dir, zap.NewNop())
	mem := reloaded.Get("user-1")
	if mem.UserName != "alice" || mem.MessageCount != 1 {
		t.Errorf("Profile not persisted: %+v", mem)
	}
	if mem.Preferences["tz"] != "UTC" {
		t.Errorf("Preferences not persisted: %+v", mem.Preferences)
	}
	if err := reloaded.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
