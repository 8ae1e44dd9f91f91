package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// fakeTx is a pgx.Tx whose Commit/Rollback are no-ops; no other method is
// ever invoked by the code under test in this package.
type fakeTx struct {
	pgx.Tx
}

func (f *fakeTx) Commit(ctx context.Context) error   { return nil }
func (f *fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeTransactor struct{}

func (fakeTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{}, nil
}

// fakeAccountRepo is an in-memory ports.AccountRepository.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: map[uuid.UUID]*domain.Account{}}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeAccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance, availableBalance string, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return nil
	}
	bal, err := money.FromString(balance)
	if err != nil {
		return err
	}
	avail, err := money.FromString(availableBalance)
	if err != nil {
		return err
	}
	a.Balance = bal
	a.AvailableBalance = avail
	a.Version = version
	return nil
}

// fakeTransactionRepo is an in-memory ports.TransactionRepository.
type fakeTransactionRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.Transaction
	byIdKey map[string]uuid.UUID
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{
		byID:    map[uuid.UUID]*domain.Transaction{},
		byIdKey: map[string]uuid.UUID{},
	}
}

func (r *fakeTransactionRepo) Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if transaction.IdempotencyKey != nil {
		if _, exists := r.byIdKey[*transaction.IdempotencyKey]; exists {
			return ErrIdempotencyKeyConflict
		}
		r.byIdKey[*transaction.IdempotencyKey] = transaction.ID
	}
	r.byID[transaction.ID] = transaction
	return nil
}

func (r *fakeTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *fakeTransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byIdKey[key]
	if !ok {
		return nil, nil
	}
	return r.byID[id], nil
}

// List returns every stored transaction, most recent first; it ignores
// BusinessID/Cursor filtering since no test in this package exercises
// cross-business isolation of listings (ReportingServiceImpl passes
// BusinessID through to the repository, which does that filtering).
func (r *fakeTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Transaction, 0, len(r.byID))
	for _, t := range r.byID {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, "", nil
}

func (r *fakeTransactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for _, t := range r.byID {
		if (t.SourceAccountID != nil && *t.SourceAccountID == accountID) ||
			(t.DestinationAccountID != nil && *t.DestinationAccountID == accountID) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, "", nil
}

// fakeLedgerRepo is an in-memory ports.LedgerRepository.
type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{}
}

func (r *fakeLedgerRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLedgerRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range r.entries {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeOutboxRepo is an in-memory ports.WebhookOutboxRepository.
type fakeOutboxRepo struct {
	mu   sync.Mutex
	rows []domain.WebhookOutbox
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{}
}

func (r *fakeOutboxRepo) Create(ctx context.Context, tx pgx.Tx, outbox *domain.WebhookOutbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *outbox)
	return nil
}

func (r *fakeOutboxRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookOutbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			cp := r.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeOutboxRepo) List(ctx context.Context, businessID uuid.UUID, cursor string, limit int) ([]domain.WebhookOutbox, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WebhookOutbox
	for _, row := range r.rows {
		if row.BusinessID == businessID {
			out = append(out, row)
		}
	}
	return out, "", nil
}

func (r *fakeOutboxRepo) ClaimBatch(ctx context.Context, limit int) ([]domain.WebhookOutbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var out []domain.WebhookOutbox
	for i := range r.rows {
		row := &r.rows[i]
		if (row.Status == domain.WebhookOutboxStatusPending || row.Status == domain.WebhookOutboxStatusRetrying) &&
			!row.NextAttemptAt.After(now) {
			out = append(out, *row)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) MarkDelivered(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Status = domain.WebhookOutboxStatusDelivered
			r.rows[i].ProcessedAt = &processedAt
		}
	}
	return nil
}

func (r *fakeOutboxRepo) MarkRetrying(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextAttemptAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Status = domain.WebhookOutboxStatusRetrying
			r.rows[i].Attempts = attempts
			r.rows[i].LastError = &lastError
			r.rows[i].NextAttemptAt = nextAttemptAt
		}
	}
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Status = domain.WebhookOutboxStatusFailed
			r.rows[i].Attempts = attempts
			r.rows[i].LastError = &lastError
		}
	}
	return nil
}

func (r *fakeOutboxRepo) ResetForManualRetry(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			if r.rows[i].Status != domain.WebhookOutboxStatusFailed {
				return false, nil
			}
			r.rows[i].Status = domain.WebhookOutboxStatusPending
			r.rows[i].Attempts = 0
			r.rows[i].LastError = nil
			r.rows[i].NextAttemptAt = now
			return true, nil
		}
	}
	return false, nil
}

// fakeIdempotencyCache is an in-memory ports.IdempotencyCache.
type fakeIdempotencyCache struct {
	mu   sync.Mutex
	data map[string]uuid.UUID
}

func newFakeIdempotencyCache() *fakeIdempotencyCache {
	return &fakeIdempotencyCache{data: map[string]uuid.UUID{}}
}

func (c *fakeIdempotencyCache) Get(ctx context.Context, key string) (uuid.UUID, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.data[key]
	return id, ok, nil
}

func (c *fakeIdempotencyCache) Set(ctx context.Context, key string, transactionID uuid.UUID, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = transactionID
	return nil
}
