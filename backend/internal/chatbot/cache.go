package chatbot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// cacheKeyPromptLen is how much of the normalized prompt participates in the
// cache key. Two long prompts sharing a 100-character prefix collide and share
// a cached answer; that lossy behavior is kept for compatibility with the
// original pipeline.
const cacheKeyPromptLen = 100

// ResponseCache memoizes backend responses keyed by (agent, channel, prompt)
type ResponseCache struct {
	cache   *gocache.Cache
	maxSize int
	logger  *zap.Logger
}

// NewResponseCache creates a response cache with the given TTL and sweep threshold
func NewResponseCache(ttl time.Duration, maxSize int, logger *zap.Logger) *ResponseCache {
	return &ResponseCache{
		// No background janitor: expired entries are evicted lazily on read
		// and swept when the size threshold is exceeded
		cache:   gocache.New(ttl, gocache.NoExpiration),
		maxSize: maxSize,
		logger:  logger,
	}
}

// Get returns a cached response for the triple, if present and unexpired
func (c *ResponseCache) Get(agentID, channel, prompt string) (string, bool) {
	key := c.key(agentID, channel, prompt)
	if val, found := c.cache.Get(key); found {
		c.logger.Debug("Response cache hit",
			zap.String("agent_id", agentID),
			zap.String("channel", channel),
		)
		return val.(string), true
	}
	return "", false
}

// Put stores a response for the triple. When the cache holds more than maxSize
// entries an expired-entry sweep runs first; there is no LRU bound beyond that.
func (c *ResponseCache) Put(agentID, channel, prompt, response string) {
	if c.cache.ItemCount() > c.maxSize {
		c.logger.Debug("Response cache over threshold, sweeping expired entries",
			zap.Int("items", c.cache.ItemCount()),
		)
		c.cache.DeleteExpired()
	}
	c.cache.SetDefault(c.key(agentID, channel, prompt), response)
}

// Flush empties the cache
func (c *ResponseCache) Flush() {
	c.cache.Flush()
}

// Len returns the number of entries currently held, expired or not
func (c *ResponseCache) Len() int {
	return c.cache.ItemCount()
}

func (c *ResponseCache) key(agentID, channel, prompt string) string {
	norm := strings.ToLower(strings.TrimSpace(prompt))
	if len(norm) > cacheKeyPromptLen {
		norm = norm[:cacheKeyPromptLen]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", agentID, channel, norm)))
	return hex.EncodeToString(sum[:])
}
