package redis

import (
	"context"
	"fmt"
	"time"

	"secure-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore implements ports.RateLimitCache, the fast-path admission
// check consulted before the authoritative Postgres counter.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
}

// NewRateLimitStore creates a new Redis-backed rate limit cache.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: "ratelimit:",
	}
}

var _ ports.RateLimitCache = (*RateLimitStore)(nil)

// IncrementAndGet increments the counter for (apiKeyID, windowStart) and
// returns the post-increment value. The key expires after ttl so a crashed
// process never leaves a window counter behind forever.
func (s *RateLimitStore) IncrementAndGet(ctx context.Context, apiKeyID uuid.UUID, windowStart time.Time, ttl time.Duration) (int, error) {
	key := fmt.Sprintf("%s%s:%d", s.prefix, apiKeyID, windowStart.Unix())

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis rate limit incr: %w", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, ttl)
	}
	return int(count), nil
}
