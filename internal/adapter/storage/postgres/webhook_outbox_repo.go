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

// WebhookOutboxRepo implements ports.WebhookOutboxRepository.
type WebhookOutboxRepo struct {
	pool Pool
}

// NewWebhookOutboxRepo creates a new WebhookOutboxRepo.
func NewWebhookOutboxRepo(pool Pool) *WebhookOutboxRepo {
	return &WebhookOutboxRepo{pool: pool}
}

var _ ports.WebhookOutboxRepository = (*WebhookOutboxRepo)(nil)

const outboxColumns = `id, business_id, event_type, payload, status, attempts, max_attempts,
	next_attempt_at, last_error, created_at, processed_at`

func (r *WebhookOutboxRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.WebhookOutbox) error {
	query := `INSERT INTO webhook_outbox (` + outboxColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := tx.Exec(ctx, query,
		o.ID, o.BusinessID, o.EventType, o.Payload, string(o.Status), o.Attempts, o.MaxAttempts,
		o.NextAttemptAt, o.LastError, o.CreatedAt, o.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook outbox row: %w", err)
	}
	return nil
}

func (r *WebhookOutboxRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookOutbox, error) {
	query := `SELECT ` + outboxColumns + ` FROM webhook_outbox WHERE id = $1`
	return r.scan(r.pool.QueryRow(ctx, query, id))
}

func (r *WebhookOutboxRepo) List(ctx context.Context, businessID uuid.UUID, cursor string, limit int) ([]domain.WebhookOutbox, string, error) {
	limit = normalizeLimit(limit)
	args := []any{businessID}
	query := `SELECT ` + outboxColumns + ` FROM webhook_outbox WHERE business_id = $1`

	if cursor != "" {
		createdAt, id, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("decode cursor: %w", err)
		}
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, createdAt, id)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("list webhook outbox rows: %w", err)
	}
	defer rows.Close()

	var out []domain.WebhookOutbox
	for rows.Next() {
		o, err := scanOutboxRow(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate webhook outbox rows: %w", err)
	}

	var next string
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}
	return out, next, nil
}

// ClaimBatch draws up to limit due rows under FOR UPDATE SKIP LOCKED so
// concurrent worker instances never contend for the same row, then flips
// them to retrying so a crashed worker doesn't hold them forever; the
// caller reports the real outcome via MarkDelivered/MarkRetrying/MarkFailed.
func (r *WebhookOutboxRepo) ClaimBatch(ctx context.Context, limit int) ([]domain.WebhookOutbox, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + outboxColumns + ` FROM webhook_outbox
		WHERE status IN ('pending', 'retrying') AND next_attempt_at <= now()
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`
	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("claim webhook outbox rows: %w", err)
	}

	var claimed []domain.WebhookOutbox
	for rows.Next() {
		o, err := scanOutboxRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		claimed = append(claimed, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claimed webhook outbox rows: %w", err)
	}

	for i := range claimed {
		if _, err := tx.Exec(ctx, `UPDATE webhook_outbox SET status = $1 WHERE id = $2`,
			string(domain.WebhookOutboxStatusRetrying), claimed[i].ID); err != nil {
			return nil, fmt.Errorf("mark claimed row retrying: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}
	return claimed, nil
}

func (r *WebhookOutboxRepo) MarkDelivered(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	query := `UPDATE webhook_outbox SET status = $1, processed_at = $2, last_error = NULL WHERE id = $3`
	_, err := r.pool.Exec(ctx, query, string(domain.WebhookOutboxStatusDelivered), processedAt, id)
	if err != nil {
		return fmt.Errorf("mark webhook delivered: %w", err)
	}
	return nil
}

func (r *WebhookOutboxRepo) MarkRetrying(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextAttemptAt time.Time) error {
	query := `UPDATE webhook_outbox SET status = $1, attempts = $2, last_error = $3, next_attempt_at = $4 WHERE id = $5`
	_, err := r.pool.Exec(ctx, query, string(domain.WebhookOutboxStatusRetrying), attempts, lastError, nextAttemptAt, id)
	if err != nil {
		return fmt.Errorf("mark webhook retrying: %w", err)
	}
	return nil
}

func (r *WebhookOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	query := `UPDATE webhook_outbox SET status = $1, attempts = $2, last_error = $3 WHERE id = $4`
	_, err := r.pool.Exec(ctx, query, string(domain.WebhookOutboxStatusFailed), attempts, lastError, id)
	if err != nil {
		return fmt.Errorf("mark webhook failed: %w", err)
	}
	return nil
}

func (r *WebhookOutboxRepo) ResetForManualRetry(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `UPDATE webhook_outbox SET status = $1, attempts = 0, last_error = NULL, next_attempt_at = $2
		WHERE id = $3 AND status = $4`
	tag, err := r.pool.Exec(ctx, query, string(domain.WebhookOutboxStatusPending), now, id, string(domain.WebhookOutboxStatusFailed))
	if err != nil {
		return false, fmt.Errorf("reset webhook for manual retry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanOutboxRow(row rowScanner) (*domain.WebhookOutbox, error) {
	o := &domain.WebhookOutbox{}
	var status string
	err := row.Scan(&o.ID, &o.BusinessID, &o.EventType, &o.Payload, &status, &o.Attempts, &o.MaxAttempts,
		&o.NextAttemptAt, &o.LastError, &o.CreatedAt, &o.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("scan webhook outbox row: %w", err)
	}
	o.Status = domain.WebhookOutboxStatus(status)
	return o, nil
}

func (r *WebhookOutboxRepo) scan(row pgx.Row) (*domain.WebhookOutbox, error) {
	o, err := scanOutboxRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}
