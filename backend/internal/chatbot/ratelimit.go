package chatbot

import (
	"sync"
	"time"
)

// RateLimitResult is the outcome of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// RateLimiter enforces a per-user fixed-window request limit.
//
// The window resets fully once it elapses, so a burst straddling the window
// boundary can admit up to twice the nominal rate. That leniency is the
// documented behavior, not a bug.
type RateLimiter struct {
	mu       sync.Mutex
	entries  map[string]*rateLimitEntry
	window   time.Duration
	maxCount int
	now      func() time.Time
}

// NewRateLimiter creates a rate limiter with the given window and max count
func NewRateLimiter(window time.Duration, maxCount int) *RateLimiter {
	return &RateLimiter{
		entries:  make(map[string]*rateLimitEntry),
		window:   window,
		maxCount: maxCount,
		now:      time.Now,
	}
}

// Check counts one request attempt for the user and reports whether it is
// admitted. Callers invoke it only for real response attempts, never for mere
// trigger checks.
func (r *RateLimiter) Check(userID string) RateLimitResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	entry, ok := r.entries[userID]
	if !ok || now.Sub(entry.windowStart) > r.window {
		r.entries[userID] = &rateLimitEntry{count: 1, windowStart: now}
		return RateLimitResult{Allowed: true}
	}

	if entry.count >= r.maxCount {
		retry := r.window - now.Sub(entry.windowStart)
		if retry <= 0 {
			retry = time.Millisecond
		}
		return RateLimitResult{Allowed: false, RetryAfter: retry}
	}

	entry.count++
	return RateLimitResult{Allowed: true}
}

// Reset clears the window for a user
func (r *RateLimiter) Reset(userID string) {
	r.mu.Lock()
	delete(r.entries, userID)
	r.mu.Unlock()
}

// Cleanup removes entries whose window expired long ago. Call periodically to
// keep the map from growing for the process lifetime.
func (r *RateLimiter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for userID, entry := range r.entries {
		if now.Sub(entry.windowStart) > 5*r.window {
			delete(r.entries, userID)
		}
	}
}
