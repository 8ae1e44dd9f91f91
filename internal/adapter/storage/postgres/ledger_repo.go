package postgres

import (
	"context"
	"fmt"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

var _ ports.LedgerRepository = (*LedgerRepo)(nil)

func (r *LedgerRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, transaction_id, account_id, entry_type, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := tx.Exec(ctx, query, e.ID, e.TransactionID, e.AccountID, string(e.EntryType), e.Amount.String(), e.BalanceAfter.String(), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	query := `SELECT id, transaction_id, account_id, entry_type, amount, balance_after, created_at
		FROM ledger_entries WHERE transaction_id = $1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var entryType, amount, balanceAfter string
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.AccountID, &entryType, &amount, &balanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.EntryType = domain.LedgerEntryType(entryType)
		if e.Amount, err = money.FromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		if e.BalanceAfter, err = money.FromString(balanceAfter); err != nil {
			return nil, fmt.Errorf("parse balance_after: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
