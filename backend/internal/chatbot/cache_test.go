package chatbot

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestResponseCache_RoundTrip(t *testing.T) {
	c := NewResponseCache(time.Minute, 100, zap.NewNop())

	if _, found := c.Get("paco", "general", "hello there"); found {
		t.Fatal("Empty cache should miss")
	}

	c.Put("paco", "general", "hello there", "hi!")

	got, found := c.Get("paco", "general", "hello there")
	if !found {
		t.Fatal("Expected a cache hit")
	}
	if got != "hi!" {
		t.Errorf("Expected 'hi!', got '%s'", got)
	}
}

func TestResponseCache_KeyNormalization(t *testing.T) {
	c := NewResponseCache(time.Minute, 100, zap.NewNop())

	c.Put("paco", "general", "  Hello THERE  ", "hi!")

	if _, found := c.Get("paco", "general", "hello there"); !found {
		t.Error("Case and whitespace should not affect the key")
	}
}

func TestResponseCache_TripleSegmentsAreDistinct(t *testing.T) {
	c := NewResponseCache(time.Minute, 100, zap.NewNop())

	c.Put("paco", "general", "hello", "a")

	if _, found := c.Get("support", "general", "hello"); found {
		t.Error("Different agent should miss")
	}
	if _, found := c.Get("paco", "random", "hello"); found {
		t.Error("Different channel should miss")
	}
	if _, found := c.Get("paco", "general", "goodbye"); found {
		t.Error("Different prompt should miss")
	}
}

func TestResponseCache_LongPromptsCollideOnPrefix(t *testing.T) {
	// Only the first 100 characters of the normalized prompt feed the key, so
	// two long prompts sharing that prefix share a cached answer
	c := NewResponseCache(time.Minute, 100, zap.NewNop())

	prefix := strings.Repeat("x", cacheKeyPromptLen)
	c.Put("paco", "general", prefix+" tell me about apples", "answer A")

	got, found := c.Get("paco", "general", prefix+" tell me about oranges")
	if !found {
		t.Fatal("Prompts sharing the 100-char prefix should collide")
	}
	if got != "answer A" {
		t.Errorf("Expected the first answer, got '%s'", got)
	}
}

func TestResponseCache_TTLExpiry(t *testing.T) {
	c := NewResponseCache(20*time.Millisecond, 100, zap.NewNop())

	c.Put("paco", "general", "hello", "hi!")
	time.Sleep(40 * time.Millisecond)

	if _, found := c.Get("paco", "general", "hello"); found {
		t.Error("Entry should have expired")
	}
}

func TestResponseCache_SweepOverThreshold(t *testing.T) {
	c := NewResponseCache(20*time.Millisecond, 3, zap.NewNop())

	c.Put("paco", "general", "one", "1")
	c.Put("paco", "general", "two", "2")
	c.Put("paco", "general", "three", "3")
	c.Put("paco", "general", "four", "4")
	time.Sleep(40 * time.Millisecond)

	// This Put sees the count over threshold and sweeps the expired entries
	c.Put("paco", "general", "five", "5")

	if n := c.Len(); n != 1 {
		t.Errorf("Expected 1 live entry after sweep, got %d", n)
	}
}
