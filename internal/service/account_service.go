package service

import (
	"context"
	"fmt"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
)

// AccountServiceImpl implements ports.AccountService: creation and
// business-scoped lookup of bookkeeping accounts. It sits outside the
// engine's atomic unit — accounts are provisioned once, then only ever
// mutated by LedgerEngine.Apply.
type AccountServiceImpl struct {
	accountRepo ports.AccountRepository
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(accountRepo ports.AccountRepository) *AccountServiceImpl {
	return &AccountServiceImpl{accountRepo: accountRepo}
}

var _ ports.AccountService = (*AccountServiceImpl)(nil)

// Create provisions a new account with its opening balance. Both balance
// fields start equal, matching the core's invariant that
// available_balance == balance outside a debit/credit/transfer.
func (s *AccountServiceImpl) Create(ctx context.Context, req ports.CreateAccountRequest) (*domain.Account, error) {
	if req.InitialBalance.IsNegative() {
		return nil, apperror.ErrValidation("initial_balance must not be negative")
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:               uuid.New(),
		BusinessID:       req.BusinessID,
		AccountType:      req.AccountType,
		Currency:         req.Currency,
		Balance:          req.InitialBalance,
		AvailableBalance: req.InitialBalance,
		Version:          0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("create account: %w", err))
	}
	return account, nil
}

// Get fetches an account, scoped to businessID.
func (s *AccountServiceImpl) Get(ctx context.Context, businessID, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find account: %w", err))
	}
	if account == nil || account.BusinessID != businessID {
		return nil, apperror.ErrAccountNotFound()
	}
	return account, nil
}
