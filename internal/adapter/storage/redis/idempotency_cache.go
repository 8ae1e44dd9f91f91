package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"secure-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// IdempotencyCache implements ports.IdempotencyCache as the fast path
// consulted before the authoritative Postgres uniqueness check.
type IdempotencyCache struct {
	client *goredis.Client
	prefix string
}

// NewIdempotencyCache creates a new Redis-backed idempotency cache.
func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{
		client: client,
		prefix: "idempotency:",
	}
}

var _ ports.IdempotencyCache = (*IdempotencyCache)(nil)

// Get returns the transaction ID previously stored under key, if any. A
// cache miss is not an error: the caller falls back to Postgres.
func (c *IdempotencyCache) Get(ctx context.Context, key string) (uuid.UUID, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return uuid.UUID{}, false, nil
		}
		return uuid.UUID{}, false, fmt.Errorf("redis idempotency get: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.UUID{}, false, fmt.Errorf("parse cached transaction id: %w", err)
	}
	return id, true, nil
}

// Set records the winning transaction ID for key, bounded by ttl.
func (c *IdempotencyCache) Set(ctx context.Context, key string, transactionID uuid.UUID, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, transactionID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency set: %w", err)
	}
	return nil
}
