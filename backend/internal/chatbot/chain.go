package chatbot

import (
	"context"
	"time"

	apperrors "paco-bot/backend/pkg/errors"

	"go.uber.org/zap"
)

// Result is the outcome of one trip through the backend chain
type Result struct {
	Success    bool
	Response   string
	Cached     bool
	Fallback   bool
	Provider   string // which backend answered: "cache", a provider name, or "fallback"
	RateLimit  bool
	RetryAfter time.Duration
	Err        error // set only on the rate-limited outcome
}

// Chain runs the ordered response pipeline: rate limit, cache, live providers
// in sequence, then the static fallback. The fallback is terminal and cannot
// fail, so Respond always produces a response unless the user is rate limited.
type Chain struct {
	limiter   *RateLimiter
	cache     *ResponseCache
	providers []Provider
	fallback  *Fallback
	logger    *zap.Logger
}

// NewChain builds the response chain. Providers are tried in slice order.
func NewChain(limiter *RateLimiter, cache *ResponseCache, providers []Provider, logger *zap.Logger) *Chain {
	return &Chain{
		limiter:   limiter,
		cache:     cache,
		providers: providers,
		fallback:  NewFallback(),
		logger:    logger,
	}
}

// Respond produces a response for the request. The rate limit is checked once,
// up front; a limited user short-circuits the whole chain. Successful live
// responses are written through to the cache.
func (c *Chain) Respond(ctx context.Context, req Request) Result {
	if rl := c.limiter.Check(req.UserID); !rl.Allowed {
		c.logger.Info("User rate limited",
			zap.String("user_id", req.UserID),
			zap.Duration("retry_after", rl.RetryAfter),
		)
		return Result{
			Success:    false,
			RateLimit:  true,
			RetryAfter: rl.RetryAfter,
			Err:        apperrors.NewRateLimited(req.UserID, rl.RetryAfter),
		}
	}

	if cached, ok := c.cache.Get(req.AgentID, req.ChannelName, req.Prompt); ok {
		return Result{Success: true, Response: cached, Cached: true, Provider: "cache"}
	}

	for _, p := range c.providers {
		response, err := p.Generate(ctx, req)
		if err != nil {
			// Transient failure: log and advance to the next backend
			c.logger.Warn("Backend failed, trying next",
				zap.String("provider", p.Name()),
				zap.String("agent_id", req.AgentID),
				zap.Bool("retryable", apperrors.IsRetryable(err)),
				zap.Error(err),
			)
			continue
		}
		if response == "" {
			c.logger.Warn("Backend returned empty response, trying next",
				zap.String("provider", p.Name()),
			)
			continue
		}

		c.cache.Put(req.AgentID, req.ChannelName, req.Prompt, response)
		c.logger.Debug("Backend responded",
			zap.String("provider", p.Name()),
			zap.String("agent_id", req.AgentID),
		)
		return Result{Success: true, Response: response, Provider: p.Name()}
	}

	response, intent := c.fallback.Respond(req.Prompt)
	c.logger.Info("All backends failed, using static fallback",
		zap.String("agent_id", req.AgentID),
		zap.String("intent", string(intent)),
	)
	return Result{Success: true, Response: response, Fallback: true, Provider: "fallback"}
}
