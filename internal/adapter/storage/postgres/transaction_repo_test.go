package postgres

import (
	"context"
	"testing"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/internal/service"
	"secure-payment-gateway/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction() *domain.Transaction {
	amount, _ := money.FromString("25.0000")
	src := uuid.New()
	key := "order-123"
	return &domain.Transaction{
		ID:              uuid.New(),
		IdempotencyKey:  &key,
		Type:            domain.TransactionTypeDebit,
		Status:          domain.TransactionStatusCompleted,
		SourceAccountID: &src,
		Amount:          amount,
		Currency:        "USD",
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transactionRow(tr *domain.Transaction) *pgxmock.Rows {
	cols := []string{"id", "idempotency_key", "type", "status", "source_account_id", "destination_account_id",
		"amount", "currency", "description", "metadata", "created_at", "completed_at"}
	return pgxmock.NewRows(cols).AddRow(
		tr.ID, tr.IdempotencyKey, string(tr.Type), string(tr.Status), tr.SourceAccountID, tr.DestinationAccountID,
		tr.Amount.String(), tr.Currency, tr.Description, tr.Metadata, tr.CreatedAt, tr.CompletedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	tr := newTestTransaction()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(tr.ID, tr.IdempotencyKey, string(tr.Type), string(tr.Status), tr.SourceAccountID, tr.DestinationAccountID,
			tr.Amount.String(), tr.Currency, tr.Description, tr.Metadata, tr.CreatedAt, tr.CompletedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, tr)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Create_IdempotencyConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	tr := newTestTransaction()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(tr.ID, tr.IdempotencyKey, string(tr.Type), string(tr.Status), tr.SourceAccountID, tr.DestinationAccountID,
			tr.Amount.String(), tr.Currency, tr.Description, tr.Metadata, tr.CreatedAt, tr.CompletedAt).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "transactions_idempotency_key_key"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, tr)
	assert.ErrorIs(t, err, service.ErrIdempotencyKeyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByIdempotencyKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	tr := newTestTransaction()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE idempotency_key").
		WithArgs(*tr.IdempotencyKey).
		WillReturnRows(transactionRow(tr))

	result, err := repo.GetByIdempotencyKey(context.Background(), *tr.IdempotencyKey)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, tr.ID, result.ID)
	assert.Equal(t, 0, tr.Amount.Cmp(result.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	cols := []string{"id", "idempotency_key", "type", "status", "source_account_id", "destination_account_id",
		"amount", "currency", "description", "metadata", "created_at", "completed_at"}
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(cols))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListByAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	tr := newTestTransaction()
	accountID := *tr.SourceAccountID

	mock.ExpectQuery("SELECT .+ FROM transactions").
		WithArgs(accountID, 51).
		WillReturnRows(transactionRow(tr))

	out, next, err := repo.ListByAccount(context.Background(), accountID, ports.TransactionListParams{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Empty(t, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}
