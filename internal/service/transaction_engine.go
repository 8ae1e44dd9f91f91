package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const idempotencyCacheTTL = 24 * time.Hour

// ErrIdempotencyKeyConflict is returned by TransactionRepository.Create when
// the unique constraint on idempotency_key rejects a racing insert.
var ErrIdempotencyKeyConflict = errors.New("idempotency key already exists")

// LedgerEngine implements ports.TransactionEngine: applies credit, debit,
// and transfer operations atomically, writes paired ledger entries, and
// writes the resulting webhook outbox row(s) in the same transaction.
type LedgerEngine struct {
	txRepo      ports.TransactionRepository
	accountRepo ports.AccountRepository
	ledgerRepo  ports.LedgerRepository
	outboxRepo  ports.WebhookOutboxRepository
	idempCache  ports.IdempotencyCache
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewLedgerEngine creates a new LedgerEngine.
func NewLedgerEngine(
	txRepo ports.TransactionRepository,
	accountRepo ports.AccountRepository,
	ledgerRepo ports.LedgerRepository,
	outboxRepo ports.WebhookOutboxRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerEngine {
	return &LedgerEngine{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		outboxRepo:  outboxRepo,
		idempCache:  idempCache,
		transactor:  transactor,
		log:         log,
	}
}

// Apply applies req atomically and returns the persisted Transaction. The
// returned bool is false when req.IdempotencyKey matched an existing
// Transaction (an idempotent replay) rather than a fresh creation.
func (e *LedgerEngine) Apply(ctx context.Context, req ports.ApplyRequest) (*domain.Transaction, bool, error) {
	if err := validateApplyRequest(req); err != nil {
		return nil, false, err
	}

	if req.IdempotencyKey != nil {
		if existing, err := e.checkIdempotency(ctx, *req.IdempotencyKey); err != nil {
			return nil, false, err
		} else if existing != nil {
			return existing, false, nil
		}
	}

	dbTx, err := e.transactor.Begin(ctx)
	if err != nil {
		return nil, false, apperror.ErrDatabase(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	var txn *domain.Transaction
	switch req.Type {
	case domain.TransactionTypeCredit:
		txn, err = e.applyCredit(ctx, dbTx, req)
	case domain.TransactionTypeDebit:
		txn, err = e.applyDebit(ctx, dbTx, req)
	case domain.TransactionTypeTransfer:
		txn, err = e.applyTransfer(ctx, dbTx, req)
	default:
		return nil, false, apperror.ErrValidation("unsupported transaction type")
	}
	if err != nil {
		return nil, false, err
	}

	if err := e.txRepo.Create(ctx, dbTx, txn); err != nil {
		if errors.Is(err, ErrIdempotencyKeyConflict) {
			return nil, false, apperror.ErrIdempotencyConflict()
		}
		return nil, false, apperror.ErrDatabase(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, false, apperror.ErrDatabase(fmt.Errorf("commit tx: %w", err))
	}

	if req.IdempotencyKey != nil {
		if err := e.idempCache.Set(ctx, *req.IdempotencyKey, txn.ID, idempotencyCacheTTL); err != nil {
			e.log.Warn().Err(err).Str("key", *req.IdempotencyKey).Msg("failed to cache idempotency key in redis")
		}
	}

	e.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("type", string(txn.Type)).
		Str("amount", txn.Amount.String()).
		Msg("transaction applied")

	return txn, true, nil
}

func validateApplyRequest(req ports.ApplyRequest) error {
	if !req.Amount.IsPositive() {
		return apperror.ErrValidation("amount must be positive")
	}
	switch req.Type {
	case domain.TransactionTypeCredit:
		if req.DestinationAccountID == nil || req.SourceAccountID != nil {
			return apperror.ErrValidation("credit requires destination_account_id and no source_account_id")
		}
	case domain.TransactionTypeDebit:
		if req.SourceAccountID == nil || req.DestinationAccountID != nil {
			return apperror.ErrValidation("debit requires source_account_id and no destination_account_id")
		}
	case domain.TransactionTypeTransfer:
		if req.SourceAccountID == nil || req.DestinationAccountID == nil {
			return apperror.ErrValidation("transfer requires both source_account_id and destination_account_id")
		}
		if *req.SourceAccountID == *req.DestinationAccountID {
			return apperror.ErrValidation("transfer source and destination must differ")
		}
	default:
		return apperror.ErrValidation("unknown transaction type")
	}
	return nil
}

// checkIdempotency consults the Redis fast path then the Postgres
// authoritative record for an existing Transaction with this key.
func (e *LedgerEngine) checkIdempotency(ctx context.Context, key string) (*domain.Transaction, error) {
	if id, hit, err := e.idempCache.Get(ctx, key); err != nil {
		e.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	} else if hit {
		txn, err := e.txRepo.GetByID(ctx, id)
		if err != nil {
			return nil, apperror.ErrDatabase(fmt.Errorf("load cached transaction: %w", err))
		}
		if txn != nil {
			return txn, nil
		}
	}

	txn, err := e.txRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("db idempotency check: %w", err))
	}
	return txn, nil
}

func (e *LedgerEngine) applyCredit(ctx context.Context, dbTx pgx.Tx, req ports.ApplyRequest) (*domain.Transaction, error) {
	dest, err := e.accountRepo.GetByIDForUpdate(ctx, dbTx, *req.DestinationAccountID)
	if err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("lock destination account: %w", err))
	}
	if dest == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if dest.Currency != req.Currency {
		return nil, apperror.ErrCurrencyMismatch()
	}

	newBalance := dest.Balance.Add(req.Amount)
	if err := e.accountRepo.UpdateBalance(ctx, dbTx, dest.ID, newBalance.String(), newBalance.String(), dest.Version+1); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("update destination balance: %w", err))
	}

	now := time.Now().UTC()
	txn := newTransaction(req, now)

	if err := e.ledgerRepo.Create(ctx, dbTx, &domain.LedgerEntry{
		ID: uuid.New(), TransactionID: txn.ID, AccountID: dest.ID,
		EntryType: domain.LedgerEntryTypeCredit, Amount: req.Amount, BalanceAfter: newBalance, CreatedAt: now,
	}); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("write ledger entry: %w", err))
	}

	if err := e.enqueueOutbox(ctx, dbTx, dest.BusinessID, txn, now); err != nil {
		return nil, err
	}
	return txn, nil
}

func (e *LedgerEngine) applyDebit(ctx context.Context, dbTx pgx.Tx, req ports.ApplyRequest) (*domain.Transaction, error) {
	src, err := e.accountRepo.GetByIDForUpdate(ctx, dbTx, *req.SourceAccountID)
	if err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("lock source account: %w", err))
	}
	if src == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if src.Currency != req.Currency {
		return nil, apperror.ErrCurrencyMismatch()
	}
	if !src.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientFunds(src.AvailableBalance.String(), req.Amount.String())
	}

	newBalance := src.Balance.Sub(req.Amount)
	if err := e.accountRepo.UpdateBalance(ctx, dbTx, src.ID, newBalance.String(), newBalance.String(), src.Version+1); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("update source balance: %w", err))
	}

	now := time.Now().UTC()
	txn := newTransaction(req, now)

	if err := e.ledgerRepo.Create(ctx, dbTx, &domain.LedgerEntry{
		ID: uuid.New(), TransactionID: txn.ID, AccountID: src.ID,
		EntryType: domain.LedgerEntryTypeDebit, Amount: req.Amount, BalanceAfter: newBalance, CreatedAt: now,
	}); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("write ledger entry: %w", err))
	}

	if err := e.enqueueOutbox(ctx, dbTx, src.BusinessID, txn, now); err != nil {
		return nil, err
	}
	return txn, nil
}

func (e *LedgerEngine) applyTransfer(ctx context.Context, dbTx pgx.Tx, req ports.ApplyRequest) (*domain.Transaction, error) {
	firstID, secondID := *req.SourceAccountID, *req.DestinationAccountID
	firstIsSource := true
	if bytes.Compare(firstID[:], secondID[:]) > 0 {
		firstID, secondID = secondID, firstID
		firstIsSource = false
	}

	first, err := e.accountRepo.GetByIDForUpdate(ctx, dbTx, firstID)
	if err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("lock account: %w", err))
	}
	second, err := e.accountRepo.GetByIDForUpdate(ctx, dbTx, secondID)
	if err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("lock account: %w", err))
	}

	var src, dst *domain.Account
	if firstIsSource {
		src, dst = first, second
	} else {
		src, dst = second, first
	}
	if src == nil || dst == nil {
		return nil, apperror.ErrAccountNotFound()
	}
	if src.Currency != req.Currency || dst.Currency != req.Currency {
		return nil, apperror.ErrCurrencyMismatch()
	}
	if !src.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientFunds(src.AvailableBalance.String(), req.Amount.String())
	}

	newSrcBalance := src.Balance.Sub(req.Amount)
	newDstBalance := dst.Balance.Add(req.Amount)
	if err := e.accountRepo.UpdateBalance(ctx, dbTx, src.ID, newSrcBalance.String(), newSrcBalance.String(), src.Version+1); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("update source balance: %w", err))
	}
	if err := e.accountRepo.UpdateBalance(ctx, dbTx, dst.ID, newDstBalance.String(), newDstBalance.String(), dst.Version+1); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("update destination balance: %w", err))
	}

	now := time.Now().UTC()
	txn := newTransaction(req, now)

	if err := e.ledgerRepo.Create(ctx, dbTx, &domain.LedgerEntry{
		ID: uuid.New(), TransactionID: txn.ID, AccountID: src.ID,
		EntryType: domain.LedgerEntryTypeDebit, Amount: req.Amount, BalanceAfter: newSrcBalance, CreatedAt: now,
	}); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("write source ledger entry: %w", err))
	}
	if err := e.ledgerRepo.Create(ctx, dbTx, &domain.LedgerEntry{
		ID: uuid.New(), TransactionID: txn.ID, AccountID: dst.ID,
		EntryType: domain.LedgerEntryTypeCredit, Amount: req.Amount, BalanceAfter: newDstBalance, CreatedAt: now,
	}); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("write destination ledger entry: %w", err))
	}

	if err := e.enqueueOutbox(ctx, dbTx, src.BusinessID, txn, now); err != nil {
		return nil, err
	}
	if dst.BusinessID != src.BusinessID {
		if err := e.enqueueOutbox(ctx, dbTx, dst.BusinessID, txn, now); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

func newTransaction(req ports.ApplyRequest, now time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:                   uuid.New(),
		IdempotencyKey:       req.IdempotencyKey,
		Type:                 req.Type,
		Status:               domain.TransactionStatusCompleted,
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               req.Amount,
		Currency:             req.Currency,
		Description:          req.Description,
		Metadata:             req.Metadata,
		CreatedAt:            now,
		CompletedAt:          &now,
	}
}

func (e *LedgerEngine) enqueueOutbox(ctx context.Context, dbTx pgx.Tx, businessID uuid.UUID, txn *domain.Transaction, now time.Time) error {
	payloadID := uuid.New()
	data, err := json.Marshal(domain.WebhookPayload{
		ID:        payloadID,
		EventType: "transaction.completed",
		CreatedAt: now,
		Data:      txn,
	})
	if err != nil {
		return apperror.ErrSerialization(fmt.Errorf("marshal webhook payload: %w", err))
	}

	row := &domain.WebhookOutbox{
		ID:            uuid.New(),
		BusinessID:    businessID,
		EventType:     "transaction.completed",
		Payload:       string(data),
		Status:        domain.WebhookOutboxStatusPending,
		Attempts:      0,
		MaxAttempts:   domain.DefaultMaxAttempts,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if err := e.outboxRepo.Create(ctx, dbTx, row); err != nil {
		return apperror.ErrDatabase(fmt.Errorf("enqueue outbox row: %w", err))
	}
	return nil
}
