package service

import (
	"context"
	"fmt"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WindowRateLimiter implements ports.RateLimiter. It consults the Redis
// fast path first and only pays for the authoritative Postgres upsert when
// Redis reports the request still within budget; Redis is never the final
// word, and its unavailability degrades to asking Postgres directly.
type WindowRateLimiter struct {
	cache ports.RateLimitCache
	repo  ports.RateLimitRepository
	log   zerolog.Logger
}

// NewWindowRateLimiter creates a new WindowRateLimiter.
func NewWindowRateLimiter(cache ports.RateLimitCache, repo ports.RateLimitRepository, log zerolog.Logger) *WindowRateLimiter {
	return &WindowRateLimiter{cache: cache, repo: repo, log: log}
}

var _ ports.RateLimiter = (*WindowRateLimiter)(nil)

// Allow reports whether the request at apiKeyID is within limitPerMinute,
// incrementing the authoritative per-minute counter as a side effect.
func (l *WindowRateLimiter) Allow(ctx context.Context, apiKeyID uuid.UUID, limitPerMinute int) (bool, error) {
	windowStart := domain.WindowStart(time.Now())

	if l.cache != nil {
		fastCount, err := l.cache.IncrementAndGet(ctx, apiKeyID, windowStart, time.Minute+time.Second)
		if err != nil {
			l.log.Warn().Err(err).Msg("rate limit cache unavailable, falling through to database")
		} else if fastCount > limitPerMinute {
			return false, nil
		}
	}

	count, err := l.repo.IncrementAndGet(ctx, apiKeyID, windowStart)
	if err != nil {
		return false, fmt.Errorf("increment rate limit window: %w", err)
	}
	return count <= limitPerMinute, nil
}
