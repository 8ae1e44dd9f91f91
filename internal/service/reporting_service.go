package service

import (
	"context"
	"fmt"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
)

// ReportingServiceImpl implements ports.ReportingService: read-only
// transaction lookup and listing, scoped to the caller's business.
type ReportingServiceImpl struct {
	txRepo      ports.TransactionRepository
	accountRepo ports.AccountRepository
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(txRepo ports.TransactionRepository, accountRepo ports.AccountRepository) *ReportingServiceImpl {
	return &ReportingServiceImpl{txRepo: txRepo, accountRepo: accountRepo}
}

var _ ports.ReportingService = (*ReportingServiceImpl)(nil)

// GetTransaction fetches a single transaction, scoped to businessID: the
// transaction must touch at least one account owned by the caller.
func (s *ReportingServiceImpl) GetTransaction(ctx context.Context, businessID, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	if tx == nil {
		return nil, apperror.ErrTransactionNotFound()
	}

	owned, err := s.touchesBusiness(ctx, tx, businessID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, apperror.ErrTransactionNotFound()
	}
	return tx, nil
}

// touchesBusiness reports whether tx's source or destination account
// belongs to businessID.
func (s *ReportingServiceImpl) touchesBusiness(ctx context.Context, tx *domain.Transaction, businessID uuid.UUID) (bool, error) {
	for _, accountID := range []*uuid.UUID{tx.SourceAccountID, tx.DestinationAccountID} {
		if accountID == nil {
			continue
		}
		account, err := s.accountRepo.GetByID(ctx, *accountID)
		if err != nil {
			return false, apperror.InternalError(fmt.Errorf("find account: %w", err))
		}
		if account != nil && account.BusinessID == businessID {
			return true, nil
		}
	}
	return false, nil
}

// ListTransactions lists transactions across the business's accounts,
// cursor-paginated on (created_at desc, id desc).
func (s *ReportingServiceImpl) ListTransactions(ctx context.Context, businessID uuid.UUID, cursor string, limit int) ([]domain.Transaction, string, error) {
	txns, next, err := s.txRepo.List(ctx, ports.TransactionListParams{
		BusinessID: businessID,
		Cursor:     cursor,
		Limit:      limit,
	})
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, next, nil
}

// ListAccountTransactions lists transactions touching a single account
// owned by businessID.
func (s *ReportingServiceImpl) ListAccountTransactions(ctx context.Context, businessID, accountID uuid.UUID, cursor string, limit int) ([]domain.Transaction, string, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("find account: %w", err))
	}
	if account == nil || account.BusinessID != businessID {
		return nil, "", apperror.ErrAccountNotFound()
	}

	txns, next, err := s.txRepo.ListByAccount(ctx, accountID, ports.TransactionListParams{
		BusinessID: businessID,
		Cursor:     cursor,
		Limit:      limit,
	})
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("list account transactions: %w", err))
	}
	return txns, next, nil
}
