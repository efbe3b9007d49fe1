package chatbot

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		if res := rl.Check("user-1"); !res.Allowed {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}

	res := rl.Check("user-1")
	if res.Allowed {
		t.Error("Request over the limit should be rejected")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Errorf("RetryAfter out of range: %v", res.RetryAfter)
	}
}

func TestRateLimiter_WindowResetsFully(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(time.Minute, 2)
	rl.now = func() time.Time { return now }

	rl.Check("user-1")
	rl.Check("user-1")
	if rl.Check("user-1").Allowed {
		t.Fatal("Third request in window should be rejected")
	}

	// Advance past the window: the count resets to zero, not a sliding credit
	now = now.Add(61 * time.Second)
	if !rl.Check("user-1").Allowed {
		t.Error("First request of the new window should be allowed")
	}
	if !rl.Check("user-1").Allowed {
		t.Error("Second request of the new window should be allowed")
	}
	if rl.Check("user-1").Allowed {
		t.Error("Third request of the new window should be rejected")
	}
}

func TestRateLimiter_BoundaryBurstAdmitsDouble(t *testing.T) {
	// A burst straddling the window boundary can pass 2x the nominal limit.
	// This leniency is intentional.
	now := time.Now()
	rl := NewRateLimiter(time.Minute, 2)
	rl.now = func() time.Time { return now }

	allowed := 0
	now = now.Add(59 * time.Second)
	for i := 0; i < 2; i++ {
		if rl.Check("user-1").Allowed {
			allowed++
		}
	}
	now = now.Add(2 * time.Second)
	for i := 0; i < 2; i++ {
		if rl.Check("user-1").Allowed {
			allowed++
		}
	}

	if allowed != 4 {
		t.Errorf("Expected 4 admitted across the boundary, got %d", allowed)
	}
}

func TestRateLimiter_UsersAreIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)

	if !rl.Check("user-1").Allowed {
		t.Fatal("First user should be allowed")
	}
	if !rl.Check("user-2").Allowed {
		t.Error("Second user must not share the first user's window")
	}
	if rl.Check("user-1").Allowed {
		t.Error("First user should now be limited")
	}
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 1)

	rl.Check("user-1")
	if rl.Check("user-1").Allowed {
		t.Fatal("Should be limited before reset")
	}

	rl.Reset("user-1")
	if !rl.Check("user-1").Allowed {
		t.Error("Should be allowed after reset")
	}
}

func TestRateLimiter_CleanupDropsStaleEntries(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(time.Minute, 5)
	rl.now = func() time.Time { return now }

	rl.Check("stale")
	now = now.Add(10 * time.Minute)
	rl.Check("fresh")

	rl.Cleanup()

	rl.mu.Lock()
	_, staleKept := rl.entries["stale"]
	_, freshKept := rl.entries["fresh"]
	rl.mu.Unlock()

	if staleKept {
		t.Error("Stale entry should have been removed")
	}
	if !freshKept {
		t.Error("Fresh entry should survive cleanup")
	}
}
