package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/internal/service"
	"secure-payment-gateway/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Business Repo ---

type inMemoryBusinessRepo struct {
	mu         sync.RWMutex
	businesses map[uuid.UUID]*domain.Business
}

func newInMemoryBusinessRepo() *inMemoryBusinessRepo {
	return &inMemoryBusinessRepo{businesses: make(map[uuid.UUID]*domain.Business)}
}

func (r *inMemoryBusinessRepo) Create(ctx context.Context, b *domain.Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.businesses {
		if existing.Email == b.Email {
			return fmt.Errorf("email already registered")
		}
	}
	cp := *b
	r.businesses[b.ID] = &cp
	return nil
}

func (r *inMemoryBusinessRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.businesses[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *inMemoryBusinessRepo) GetByEmail(ctx context.Context, email string) (*domain.Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.businesses {
		if b.Email == email {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryBusinessRepo) UpdateWebhook(ctx context.Context, id uuid.UUID, webhookURL *string, webhookSecret *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.businesses[id]
	if !ok {
		return fmt.Errorf("business not found")
	}
	if webhookURL != nil {
		b.WebhookURL = webhookURL
	}
	b.WebhookSecret = webhookSecret
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory API Key Repo ---

type inMemoryApiKeyRepo struct {
	mu   sync.RWMutex
	keys map[uuid.UUID]*domain.ApiKey
}

func newInMemoryApiKeyRepo() *inMemoryApiKeyRepo {
	return &inMemoryApiKeyRepo{keys: make(map[uuid.UUID]*domain.ApiKey)}
}

func (r *inMemoryApiKeyRepo) Create(ctx context.Context, key *domain.ApiKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *key
	r.keys[key.ID] = &cp
	return nil
}

func (r *inMemoryApiKeyRepo) GetByPrefix(ctx context.Context, prefix string) (*domain.ApiKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, k := range r.keys {
		if k.KeyPrefix == prefix {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryApiKeyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ApiKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.keys[id]
	if !ok {
		return nil, nil
	}
	cp := *k
	return &cp, nil
}

func (r *inMemoryApiKeyRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok {
		return fmt.Errorf("api key not found")
	}
	now := time.Now().UTC()
	k.RevokedAt = &now
	return nil
}

func (r *inMemoryApiKeyRepo) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok {
		return fmt.Errorf("api key not found")
	}
	k.LastUsedAt = &at
	return nil
}

// --- In-Memory Transactor & row locking ---
//
// lockingTx emulates PostgreSQL's SELECT ... FOR UPDATE by having
// GetByIDForUpdate block on a per-account mutex that is only released when
// the transaction commits or rolls back. This gives the in-memory stack the
// same serialization guarantee the real postgres.AccountRepository gets
// from row locks, so the concurrency tests exercise genuine contention
// instead of documenting races away.
type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &lockingTx{}, nil
}

type lockingTx struct {
	noopTx
	mu     sync.Mutex
	locked []*sync.Mutex
	done   bool
}

func (t *lockingTx) acquire(mu *sync.Mutex) {
	mu.Lock()
	t.mu.Lock()
	t.locked = append(t.locked, mu)
	t.mu.Unlock()
}

func (t *lockingTx) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	for _, mu := range t.locked {
		mu.Unlock()
	}
}

func (t *lockingTx) Commit(ctx context.Context) error {
	t.release()
	return nil
}

func (t *lockingTx) Rollback(ctx context.Context) error {
	t.release()
	return nil
}

// noopTx is a minimal pgx.Tx implementation; lockingTx embeds it for the
// methods the engine never actually calls (CopyFrom, SendBatch, ...).
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
	locks    map[uuid.UUID]*sync.Mutex
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{
		accounts: make(map[uuid.UUID]*domain.Account),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *inMemoryAccountRepo) lockFor(id uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	mu, ok := r.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[id] = mu
	}
	return mu
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// GetByIDForUpdate blocks until the account's row lock is free, then holds
// it for the lifetime of tx (released on Commit/Rollback).
func (r *inMemoryAccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	if lt, ok := tx.(*lockingTx); ok {
		lt.acquire(r.lockFor(id))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance, availableBalance string, version int64) error {
	bal, err := money.FromString(balance)
	if err != nil {
		return fmt.Errorf("parse balance: %w", err)
	}
	avail, err := money.FromString(availableBalance)
	if err != nil {
		return fmt.Errorf("parse available balance: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.Balance = bal
	a.AvailableBalance = avail
	a.Version = version
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
	byIdempKey   map[string]uuid.UUID
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		transactions: make(map[uuid.UUID]*domain.Transaction),
		byIdempKey:   make(map[string]uuid.UUID),
	}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.IdempotencyKey != nil {
		if _, exists := r.byIdempKey[*t.IdempotencyKey]; exists {
			return service.ErrIdempotencyKeyConflict
		}
	}
	cp := *t
	r.transactions[t.ID] = &cp
	if t.IdempotencyKey != nil {
		r.byIdempKey[*t.IdempotencyKey] = t.ID
	}
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIdempKey[key]
	if !ok {
		return nil, nil
	}
	t := r.transactions[id]
	cp := *t
	return &cp, nil
}

// accountMatches reports whether a transaction touches accountID as either
// leg, used by ListByAccount.
func accountMatches(t *domain.Transaction, accountID uuid.UUID) bool {
	if t.SourceAccountID != nil && *t.SourceAccountID == accountID {
		return true
	}
	if t.DestinationAccountID != nil && *t.DestinationAccountID == accountID {
		return true
	}
	return false
}

func (r *inMemoryTransactionRepo) list(filter func(*domain.Transaction) bool, params ports.TransactionListParams) ([]domain.Transaction, string, error) {
	r.mu.RLock()
	all := make([]*domain.Transaction, 0, len(r.transactions))
	for _, t := range r.transactions {
		if filter(t) {
			all = append(all, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() > all[j].ID.String()
	})

	start := 0
	if params.Cursor != "" {
		idx, err := decodeTestCursor(params.Cursor)
		if err != nil {
			return nil, "", err
		}
		start = idx
	}
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if start >= len(all) {
		return []domain.Transaction{}, "", nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	page := make([]domain.Transaction, 0, end-start)
	for _, t := range all[start:end] {
		page = append(page, *t)
	}

	next := ""
	if end < len(all) {
		next = encodeTestCursor(end)
	}
	return page, next, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, string, error) {
	return r.list(func(t *domain.Transaction) bool { return true }, params)
}

func (r *inMemoryTransactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, string, error) {
	return r.list(func(t *domain.Transaction) bool { return accountMatches(t, accountID) }, params)
}

// encodeTestCursor/decodeTestCursor implement a deliberately simple
// position cursor for the in-memory store; it has no relation to the
// production base64 keyset cursor in the postgres adapter and only needs
// to round-trip within this package's own listings.
func encodeTestCursor(idx int) string {
	return fmt.Sprintf("idx:%d", idx)
}

func decodeTestCursor(cursor string) (int, error) {
	var idx int
	if _, err := fmt.Sscanf(cursor, "idx:%d", &idx); err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	return idx, nil
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]domain.LedgerEntry
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{entries: make(map[uuid.UUID][]domain.LedgerEntry)}
}

func (r *inMemoryLedgerRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.TransactionID] = append(r.entries[entry.TransactionID], *entry)
	return nil
}

func (r *inMemoryLedgerRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.LedgerEntry(nil), r.entries[transactionID]...), nil
}

// --- In-Memory Webhook Outbox Repo ---

type inMemoryOutboxRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.WebhookOutbox
}

func newInMemoryOutboxRepo() *inMemoryOutboxRepo {
	return &inMemoryOutboxRepo{rows: make(map[uuid.UUID]*domain.WebhookOutbox)}
}

func (r *inMemoryOutboxRepo) Create(ctx context.Context, tx pgx.Tx, outbox *domain.WebhookOutbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *outbox
	r.rows[outbox.ID] = &cp
	return nil
}

func (r *inMemoryOutboxRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookOutbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *inMemoryOutboxRepo) List(ctx context.Context, businessID uuid.UUID, cursor string, limit int) ([]domain.WebhookOutbox, string, error) {
	r.mu.Lock()
	all := make([]*domain.WebhookOutbox, 0)
	for _, row := range r.rows {
		if row.BusinessID == businessID {
			all = append(all, row)
		}
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() > all[j].ID.String()
	})

	start := 0
	if cursor != "" {
		idx, err := decodeTestCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		start = idx
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if start >= len(all) {
		return []domain.WebhookOutbox{}, "", nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page := make([]domain.WebhookOutbox, 0, end-start)
	for _, row := range all[start:end] {
		page = append(page, *row)
	}
	next := ""
	if end < len(all) {
		next = encodeTestCursor(end)
	}
	return page, next, nil
}

func (r *inMemoryOutboxRepo) ClaimBatch(ctx context.Context, limit int) ([]domain.WebhookOutbox, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	claimed := make([]domain.WebhookOutbox, 0, limit)
	for _, row := range r.rows {
		if len(claimed) >= limit {
			break
		}
		if row.IsTerminal() {
			continue
		}
		if row.NextAttemptAt.After(now) {
			continue
		}
		claimed = append(claimed, *row)
	}
	return claimed, nil
}

func (r *inMemoryOutboxRepo) MarkDelivered(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("outbox row not found")
	}
	row.Status = domain.WebhookOutboxStatusDelivered
	row.ProcessedAt = &processedAt
	return nil
}

func (r *inMemoryOutboxRepo) MarkRetrying(ctx context.Context, id uuid.UUID, attempts int, lastError string, nextAttemptAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("outbox row not found")
	}
	row.Status = domain.WebhookOutboxStatusRetrying
	row.Attempts = attempts
	row.LastError = &lastError
	row.NextAttemptAt = nextAttemptAt
	return nil
}

func (r *inMemoryOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("outbox row not found")
	}
	row.Status = domain.WebhookOutboxStatusFailed
	row.Attempts = attempts
	row.LastError = &lastError
	return nil
}

func (r *inMemoryOutboxRepo) ResetForManualRetry(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return false, fmt.Errorf("outbox row not found")
	}
	if row.Status != domain.WebhookOutboxStatusFailed {
		return false, nil
	}
	row.Status = domain.WebhookOutboxStatusPending
	row.Attempts = 0
	row.NextAttemptAt = now
	row.LastError = nil
	return true, nil
}
