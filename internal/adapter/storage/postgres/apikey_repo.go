package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ApiKeyRepo implements ports.ApiKeyRepository.
type ApiKeyRepo struct {
	pool Pool
}

// NewApiKeyRepo creates a new ApiKeyRepo.
func NewApiKeyRepo(pool Pool) *ApiKeyRepo {
	return &ApiKeyRepo{pool: pool}
}

var _ ports.ApiKeyRepository = (*ApiKeyRepo)(nil)

func (r *ApiKeyRepo) Create(ctx context.Context, key *domain.ApiKey) error {
	query := `INSERT INTO api_keys (id, business_id, key_hash, key_prefix, rate_limit_per_minute, expires_at, revoked_at, last_used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		key.ID, key.BusinessID, key.KeyHash, key.KeyPrefix, key.RateLimitPerMin,
		key.ExpiresAt, key.RevokedAt, key.LastUsedAt, key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetByPrefix looks up the single usable row matching key_prefix with
// revoked_at IS NULL, per the verifier's lookup contract.
func (r *ApiKeyRepo) GetByPrefix(ctx context.Context, prefix string) (*domain.ApiKey, error) {
	query := `SELECT id, business_id, key_hash, key_prefix, rate_limit_per_minute, expires_at, revoked_at, last_used_at, created_at
		FROM api_keys WHERE key_prefix = $1 AND revoked_at IS NULL`
	return r.scan(r.pool.QueryRow(ctx, query, prefix))
}

func (r *ApiKeyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ApiKey, error) {
	query := `SELECT id, business_id, key_hash, key_prefix, rate_limit_per_minute, expires_at, revoked_at, last_used_at, created_at
		FROM api_keys WHERE id = $1`
	return r.scan(r.pool.QueryRow(ctx, query, id))
}

func (r *ApiKeyRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key not found or already revoked: %s", id)
	}
	return nil
}

// TouchLastUsed is best-effort: verification never fails on its error.
func (r *ApiKeyRepo) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`
	_, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("touch api key last_used_at: %w", err)
	}
	return nil
}

func (r *ApiKeyRepo) scan(row pgx.Row) (*domain.ApiKey, error) {
	k := &domain.ApiKey{}
	err := row.Scan(&k.ID, &k.BusinessID, &k.KeyHash, &k.KeyPrefix, &k.RateLimitPerMin, &k.ExpiresAt, &k.RevokedAt, &k.LastUsedAt, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan api key: %w", err)
	}
	return k, nil
}
