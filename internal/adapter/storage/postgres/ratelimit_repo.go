package postgres

import (
	"context"
	"fmt"
	"time"

	"secure-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
)

// RateLimitRepo implements ports.RateLimitRepository, the durable
// authoritative counter behind the Redis fast path.
type RateLimitRepo struct {
	pool Pool
}

// NewRateLimitRepo creates a new RateLimitRepo.
func NewRateLimitRepo(pool Pool) *RateLimitRepo {
	return &RateLimitRepo{pool: pool}
}

var _ ports.RateLimitRepository = (*RateLimitRepo)(nil)

func (r *RateLimitRepo) IncrementAndGet(ctx context.Context, apiKeyID uuid.UUID, windowStart time.Time) (int, error) {
	query := `INSERT INTO rate_limit_windows (api_key_id, window_start, request_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (api_key_id, window_start)
		DO UPDATE SET request_count = rate_limit_windows.request_count + 1
		RETURNING request_count`
	var count int
	if err := r.pool.QueryRow(ctx, query, apiKeyID, windowStart).Scan(&count); err != nil {
		return 0, fmt.Errorf("increment rate limit window: %w", err)
	}
	return count, nil
}
