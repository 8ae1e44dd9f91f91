package postgres

import (
	"context"
	"errors"
	"fmt"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

var _ ports.AccountRepository = (*AccountRepo)(nil)

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, business_id, account_type, currency, balance, available_balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		a.ID, a.BusinessID, a.AccountType, a.Currency, a.Balance.String(), a.AvailableBalance.String(),
		a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account without locking.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, business_id, account_type, currency, balance, available_balance, version, created_at, updated_at
		FROM accounts WHERE id = $1`
	return r.scan(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate locks the account row. Must run inside tx. Callers
// touching more than one account (transfers) must issue these calls in
// ascending identifier order to avoid deadlocks.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT id, business_id, account_type, currency, balance, available_balance, version, created_at, updated_at
		FROM accounts WHERE id = $1 FOR UPDATE`
	return r.scan(tx.QueryRow(ctx, query, id))
}

func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance, availableBalance string, version int64) error {
	query := `UPDATE accounts SET balance = $1, available_balance = $2, version = $3, updated_at = now() WHERE id = $4`
	tag, err := tx.Exec(ctx, query, balance, availableBalance, version, accountID)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", accountID)
	}
	return nil
}

func (r *AccountRepo) scan(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	var balance, available string
	err := row.Scan(&a.ID, &a.BusinessID, &a.AccountType, &a.Currency, &balance, &available, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if a.Balance, err = money.FromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	if a.AvailableBalance, err = money.FromString(available); err != nil {
		return nil, fmt.Errorf("parse available_balance: %w", err)
	}
	return a, nil
}
