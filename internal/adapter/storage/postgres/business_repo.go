package postgres

import (
	"context"
	"errors"
	"fmt"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BusinessRepo implements ports.BusinessRepository. Webhook secrets are
// encrypted at rest with AES-256-GCM and decrypted transparently on read,
// so every other layer keeps working with the secret in plaintext form.
type BusinessRepo struct {
	pool   Pool
	encSvc ports.EncryptionService
}

// NewBusinessRepo creates a new BusinessRepo.
func NewBusinessRepo(pool Pool, encSvc ports.EncryptionService) *BusinessRepo {
	return &BusinessRepo{pool: pool, encSvc: encSvc}
}

var _ ports.BusinessRepository = (*BusinessRepo)(nil)

func (r *BusinessRepo) Create(ctx context.Context, b *domain.Business) error {
	encSecret, err := r.encryptSecret(b.WebhookSecret)
	if err != nil {
		return fmt.Errorf("encrypt webhook secret: %w", err)
	}

	query := `INSERT INTO businesses (id, name, email, webhook_url, webhook_secret, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.pool.Exec(ctx, query,
		b.ID, b.Name, b.Email, b.WebhookURL, encSecret, b.PasswordHash, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

func (r *BusinessRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Business, error) {
	query := `SELECT id, name, email, webhook_url, webhook_secret, password_hash, created_at, updated_at
		FROM businesses WHERE id = $1`
	return r.scan(r.pool.QueryRow(ctx, query, id))
}

func (r *BusinessRepo) GetByEmail(ctx context.Context, email string) (*domain.Business, error) {
	query := `SELECT id, name, email, webhook_url, webhook_secret, password_hash, created_at, updated_at
		FROM businesses WHERE email = $1`
	return r.scan(r.pool.QueryRow(ctx, query, email))
}

func (r *BusinessRepo) UpdateWebhook(ctx context.Context, id uuid.UUID, webhookURL *string, webhookSecret *string) error {
	encSecret, err := r.encryptSecret(webhookSecret)
	if err != nil {
		return fmt.Errorf("encrypt webhook secret: %w", err)
	}

	query := `UPDATE businesses SET webhook_url = $1, webhook_secret = $2, updated_at = now() WHERE id = $3`
	tag, err := r.pool.Exec(ctx, query, webhookURL, encSecret, id)
	if err != nil {
		return fmt.Errorf("update business webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("business not found: %s", id)
	}
	return nil
}

func (r *BusinessRepo) scan(row pgx.Row) (*domain.Business, error) {
	b := &domain.Business{}
	err := row.Scan(&b.ID, &b.Name, &b.Email, &b.WebhookURL, &b.WebhookSecret, &b.PasswordHash, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan business: %w", err)
	}
	if b.WebhookSecret != nil {
		plain, err := r.encSvc.Decrypt(*b.WebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("decrypt webhook secret: %w", err)
		}
		b.WebhookSecret = &plain
	}
	return b, nil
}

func (r *BusinessRepo) encryptSecret(secret *string) (*string, error) {
	if secret == nil {
		return nil, nil
	}
	enc, err := r.encSvc.Encrypt(*secret)
	if err != nil {
		return nil, err
	}
	return &enc, nil
}
