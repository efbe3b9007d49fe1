package games

import (
	"testing"

	"go.uber.org/zap"
)

func TestLeaderboard_AddScoreAccumulates(t *testing.T) {
	lb := NewLeaderboard(t.TempDir(), zap.NewNop())

	lb.AddScore(GameTrivia, "user-1", "alice", 10, true)
	lb.AddScore(GameTrivia, "user-1", "alice", 5, false)

	score, ok := lb.Score(GameTrivia, "user-1")
	if !ok {
		t.Fatal("Player should exist on the board")
	}
	if score.Points != 15 || score.Wins != 1 || score.GamesPlayed != 2 {
		t.Errorf("Unexpected accumulation: %+v", score)
	}
}

func TestLeaderboard_GamesAreSeparate(t *testing.T) {
	lb := NewLeaderboard(t.TempDir(), zap.NewNop())

	lb.AddScore(GameTrivia, "user-1", "alice", 10, true)

	if _, ok := lb.Score(GameHangman, "user-1"); ok {
		t.Error("Scores must not leak across game types")
	}
}

func TestLeaderboard_TopOrdering(t *testing.T) {
	lb := NewLeaderboard(t.TempDir(), zap.NewNop())

	lb.AddScore(GameTrivia, "user-1", "alice", 10, true)
	lb.AddScore(GameTrivia, "user-2", "bob", 30, true)
	lb.AddScore(GameTrivia, "user-3", "carol", 10, true)
	lb.AddScore(GameTrivia, "user-3", "carol", 0, true) // second win, same points

	top := lb.Top(GameTrivia, 2)
	if len(top) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(top))
	}
	if top[0].UserID != "user-2" {
		t.Errorf("Highest points first, got %s", top[0].UserID)
	}
	if top[1].UserID != "user-3" {
		t.Errorf("Wins break point ties, got %s", top[1].UserID)
	}
}

func TestLeaderboard_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	lb := NewLeaderboard(dir, zap.NewNop())
	lb.AddScore(GameHangman, "user-1", "alice", 25, true)

	reloaded := NewLeaderboard(dir, zap.NewNop())
	score, ok := reloaded.Score(GameHangman, "user-1")
	if !ok || score.Points != 25 || score.UserName != "alice" {
		t.Errorf("Leaderboard not persisted: %+v", score)
	}
}

func TestLeaderboard_UserNameRefreshes(t *testing.T) {
	lb := NewLeaderboard(t.TempDir(), zap.NewNop())

	lb.AddScore(GameTrivia, "user-1", "old-name", 10, true)
	lb.AddScore(GameTrivia, "user-1", "new-name", 5, false)

	score, _ := lb.Score(GameTrivia, "user-1")
	if score.UserName != "new-name" {
		t.Errorf("Latest name should win, got %q", score.UserName)
	}
}
