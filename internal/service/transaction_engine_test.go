package service

import (
	"context"
	"testing"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"
	"secure-payment-gateway/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(businessID uuid.UUID, currency, balance string) *domain.Account {
	amt, _ := money.FromString(balance)
	return &domain.Account{
		ID:               uuid.New(),
		BusinessID:       businessID,
		AccountType:      "default",
		Currency:         currency,
		Balance:          amt,
		AvailableBalance: amt,
		Version:          0,
	}
}

func newTestEngine(accounts *fakeAccountRepo) (*LedgerEngine, *fakeTransactionRepo, *fakeOutboxRepo) {
	txRepo := newFakeTransactionRepo()
	ledgerRepo := newFakeLedgerRepo()
	outboxRepo := newFakeOutboxRepo()
	cache := newFakeIdempotencyCache()
	engine := NewLedgerEngine(txRepo, accounts, ledgerRepo, outboxRepo, cache, fakeTransactor{}, zerolog.Nop())
	return engine, txRepo, outboxRepo
}

func strPtr(s string) *string { return &s }

func TestLedgerEngine_Credit_Success(t *testing.T) {
	businessID := uuid.New()
	dest := newTestAccount(businessID, "USD", "0.00")
	accounts := newFakeAccountRepo(dest)
	engine, _, outbox := newTestEngine(accounts)

	amt, _ := money.FromString("100.00")
	txn, created, err := engine.Apply(context.Background(), ports.ApplyRequest{
		Type:                 domain.TransactionTypeCredit,
		DestinationAccountID: &dest.ID,
		Amount:               amt,
		Currency:             "USD",
		IdempotencyKey:       strPtr("c1"),
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)

	updated, _ := accounts.GetByID(context.Background(), dest.ID)
	assert.Equal(t, "100.0000", updated.Balance.String())
	assert.Len(t, outbox.rows, 1)
	assert.Equal(t, businessID, outbox.rows[0].BusinessID)
}

func TestLedgerEngine_Credit_IdempotentReplay(t *testing.T) {
	businessID := uuid.New()
	dest := newTestAccount(businessID, "USD", "500.00")
	accounts := newFakeAccountRepo(dest)
	engine, _, _ := newTestEngine(accounts)

	amt, _ := money.FromString("100.00")
	req := ports.ApplyRequest{
		Type: domain.TransactionTypeCredit, DestinationAccountID: &dest.ID,
		Amount: amt, Currency: "USD", IdempotencyKey: strPtr("c1"),
	}

	first, created1, err := engine.Apply(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, created1)

	second, created2, err := engine.Apply(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, first.ID, second.ID)

	updated, _ := accounts.GetByID(context.Background(), dest.ID)
	assert.Equal(t, "600.0000", updated.Balance.String(), "replay must not double-apply the credit")
}

func TestLedgerEngine_Debit_InsufficientFunds(t *testing.T) {
	businessID := uuid.New()
	src := newTestAccount(businessID, "USD", "50.00")
	accounts := newFakeAccountRepo(src)
	engine, _, _ := newTestEngine(accounts)

	amt, _ := money.FromString("100.00")
	_, _, err := engine.Apply(context.Background(), ports.ApplyRequest{
		Type: domain.TransactionTypeDebit, SourceAccountID: &src.ID,
		Amount: amt, Currency: "USD",
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "insufficient_funds", appErr.Code)
	assert.Equal(t, map[string]string{"available": "50.0000", "requested": "100.0000"}, appErr.Details)
}

func TestLedgerEngine_Debit_ExactBalance_LeavesZero(t *testing.T) {
	businessID := uuid.New()
	src := newTestAccount(businessID, "USD", "50.00")
	accounts := newFakeAccountRepo(src)
	engine, _, _ := newTestEngine(accounts)

	amt, _ := money.FromString("50.00")
	_, _, err := engine.Apply(context.Background(), ports.ApplyRequest{
		Type: domain.TransactionTypeDebit, SourceAccountID: &src.ID,
		Amount: amt, Currency: "USD",
	})
	require.NoError(t, err)

	updated, _ := accounts.GetByID(context.Background(), src.ID)
	assert.True(t, updated.Balance.IsZero())
}

func TestLedgerEngine_Transfer_Success(t *testing.T) {
	businessID := uuid.New()
	src := newTestAccount(businessID, "USD", "1000.00")
	dst := newTestAccount(businessID, "USD", "0.00")
	accounts := newFakeAccountRepo(src, dst)
	engine, _, outbox := newTestEngine(accounts)

	amt, _ := money.FromString("250.00")
	txn, _, err := engine.Apply(context.Background(), ports.ApplyRequest{
		Type: domain.TransactionTypeTransfer, SourceAccountID: &src.ID, DestinationAccountID: &dst.ID,
		Amount: amt, Currency: "USD", IdempotencyKey: strPtr("t1"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeTransfer, txn.Type)

	srcAfter, _ := accounts.GetByID(context.Background(), src.ID)
	dstAfter, _ := accounts.GetByID(context.Background(), dst.ID)
	assert.Equal(t, "750.0000", srcAfter.Balance.String())
	assert.Equal(t, "250.0000", dstAfter.Balance.String())
	assert.Len(t, outbox.rows, 1, "same-business transfer enqueues a single outbox row")
}

func TestLedgerEngine_Transfer_CrossBusiness_EnqueuesTwoOutboxRows(t *testing.T) {
	srcBusiness, dstBusiness := uuid.New(), uuid.New()
	src := newTestAccount(srcBusiness, "USD", "1000.00")
	dst := newTestAccount(dstBusiness, "USD", "0.00")
	accounts := newFakeAccountRepo(src, dst)
	engine, _, outbox := newTestEngine(accounts)

	amt, _ := money.FromString("100.00")
	_, _, err := engine.Apply(context.Background(), ports.ApplyRequest{
		Type: domain.TransactionTypeTransfer, SourceAccountID: &src.ID, DestinationAccountID: &dst.ID,
		Amount: amt, Currency: "USD",
	})
	require.NoError(t, err)
	assert.Len(t, outbox.rows, 2)
}

func TestLedgerEngine_Validation_AmountNotPositive(t *testing.T) {
	accounts := newFakeAccountRepo()
	engine, _, _ := newTestEngine(accounts)

	zero := money.Zero()
	_, _, err := engine.Apply(context.Background(), ports.ApplyRequest{
		Type: domain.TransactionTypeCredit, DestinationAccountID: uuidPtr(uuid.New()),
		Amount: zero, Currency: "USD",
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "validation_error", appErr.Code)
}

func TestLedgerEngine_Validation_TransferSameAccount(t *testing.T) {
	businessID := uuid.New()
	acct := newTestAccount(businessID, "USD", "100.00")
	accounts := newFakeAccountRepo(acct)
	engine, _, _ := newTestEngine(accounts)

	amt, _ := money.FromString("10.00")
	_, _, err := engine.Apply(context.Background(), ports.ApplyRequest{
		Type: domain.TransactionTypeTransfer, SourceAccountID: &acct.ID, DestinationAccountID: &acct.ID,
		Amount: amt, Currency: "USD",
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "validation_error", appErr.Code)
}

func TestLedgerEngine_CurrencyMismatch(t *testing.T) {
	businessID := uuid.New()
	dest := newTestAccount(businessID, "USD", "0.00")
	accounts := newFakeAccountRepo(dest)
	engine, _, _ := newTestEngine(accounts)

	amt, _ := money.FromString("10.00")
	_, _, err := engine.Apply(context.Background(), ports.ApplyRequest{
		Type: domain.TransactionTypeCredit, DestinationAccountID: &dest.ID,
		Amount: amt, Currency: "EUR",
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "currency_mismatch", appErr.Code)
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
