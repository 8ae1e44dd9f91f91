package ports

import (
	"context"
	"time"

	"secure-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DBTransactor provides database transaction management for the engine's
// atomic unit.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BusinessRepository defines persistence operations for businesses.
type BusinessRepository interface {
	Create(ctx context.Context, business *domain.Business) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Business, error)
	GetByEmail(ctx context.Context, email string) (*domain.Business, error)
	UpdateWebhook(ctx context.Context, id uuid.UUID, webhookURL *string, webhookSecret *string) error
}

// ApiKeyRepository defines persistence operations for API keys.
type ApiKeyRepository interface {
	Create(ctx context.Context, key *domain.ApiKey) error
	GetByPrefix(ctx context.Context, prefix string) (*domain.ApiKey, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ApiKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AccountRepository defines persistence operations for accounts. Methods
// accepting pgx.Tx are used inside the engine's atomic unit for
// pessimistic locking.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance, availableBalance string, version int64) error
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, string, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, params TransactionListParams) ([]domain.Transaction, string, error)
}

// TransactionListParams holds filter and cursor pagination for listing
// transactions, ordered by (created_at desc, id desc).
type TransactionListParams struct {
	BusinessID uuid.UUID
	Cursor     string // opaque, empty for the first page
	Limit      int
}

// LedgerRepository defines persistence operations for ledger entries.
type LedgerRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error)
}

// WebhookOutboxRepository defines persistence operations for the
// transactional outbox.
type WebhookOutboxRepository interface {
	Create(ctx context.Context, tx pgx.Tx, outbox *domain.WebhookOutbox) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookOutbox, error)
	List(ctx context.Context, businessID uuid.UUID, cursor string, limit int) ([]domain.WebhookOutbox, string, error)
	// ClaimBatch selects up to limit due rows with SELECT ... FOR UPDATE
	// SKIP LOCKED so concurrent workers draw disjoint batches.
	ClaimBatch(ctx context.Context, limit int) ([]domain.WebhookOutbox, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	MarkRetrying(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextAttemptAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error
	// ResetForManualRetry resets a failed row to pending/attempts=0. Returns
	// false (no error) if the row was not in failed status.
	ResetForManualRetry(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// RateLimitRepository defines the authoritative, durable rate-limit
// counter backed by the same store as the ledger.
type RateLimitRepository interface {
	// IncrementAndGet atomically upserts (api_key_id, window_start),
	// incrementing request_count by 1, and returns the post-increment value.
	IncrementAndGet(ctx context.Context, apiKeyID uuid.UUID, windowStart time.Time) (int, error)
}

// AuditRepository defines persistence for the best-effort audit trail.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
