package postgres

import (
	"context"
	"errors"
	"fmt"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/internal/service"
	"secure-payment-gateway/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

var _ ports.TransactionRepository = (*TransactionRepo)(nil)

const transactionColumns = `id, idempotency_key, type, status, source_account_id, destination_account_id,
	amount, currency, description, metadata, created_at, completed_at`

// Create inserts a transaction row within the engine's atomic unit. A
// unique-constraint violation on idempotency_key surfaces as
// ErrIdempotencyKeyConflict for the engine to translate.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := tx.Exec(ctx, query,
		t.ID, t.IdempotencyKey, string(t.Type), string(t.Status), t.SourceAccountID, t.DestinationAccountID,
		t.Amount.String(), t.Currency, t.Description, t.Metadata, t.CreatedAt, t.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "transactions_idempotency_key_key") {
			return service.ErrIdempotencyKeyConflict
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scan(r.pool.QueryRow(ctx, query, id))
}

func (r *TransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`
	return r.scan(r.pool.QueryRow(ctx, query, key))
}

// List returns transactions for a business ordered by (created_at desc,
// id desc), keyset-paginated via an opaque cursor.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, string, error) {
	limit := normalizeLimit(params.Limit)
	args := []any{params.BusinessID}
	query := `SELECT ` + columnsPrefixed("t") + ` FROM transactions t
		WHERE EXISTS (SELECT 1 FROM accounts a
			WHERE (a.id = t.source_account_id OR a.id = t.destination_account_id) AND a.business_id = $1)`

	if params.Cursor != "" {
		createdAt, id, err := decodeCursor(params.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("decode cursor: %w", err)
		}
		query += fmt.Sprintf(" AND (t.created_at, t.id) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, createdAt, id)
	}
	query += fmt.Sprintf(" ORDER BY t.created_at DESC, t.id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit+1)

	return r.queryList(ctx, query, args, limit)
}

func (r *TransactionRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, params ports.TransactionListParams) ([]domain.Transaction, string, error) {
	limit := normalizeLimit(params.Limit)
	args := []any{accountID}
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE (source_account_id = $1 OR destination_account_id = $1)`

	if params.Cursor != "" {
		createdAt, id, err := decodeCursor(params.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("decode cursor: %w", err)
		}
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, createdAt, id)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit+1)

	return r.queryList(ctx, query, args, limit)
}

func columnsPrefixed(alias string) string {
	cols := []string{"id", "idempotency_key", "type", "status", "source_account_id", "destination_account_id",
		"amount", "currency", "description", "metadata", "created_at", "completed_at"}
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += alias + "." + c
	}
	return out
}

func (r *TransactionRepo) queryList(ctx context.Context, query string, args []any, limit int) ([]domain.Transaction, string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransactionRow(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate transactions: %w", err)
	}

	var next string
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}
	return out, next, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransactionRow(row rowScanner) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var typ, status, amount string
	err := row.Scan(&t.ID, &t.IdempotencyKey, &typ, &status, &t.SourceAccountID, &t.DestinationAccountID,
		&amount, &t.Currency, &t.Description, &t.Metadata, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = domain.TransactionType(typ)
	t.Status = domain.TransactionStatus(status)
	if t.Amount, err = money.FromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	return t, nil
}

func (r *TransactionRepo) scan(row pgx.Row) (*domain.Transaction, error) {
	t, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		// pgx wraps ErrNoRows inside Scan errors too; unwrap via errors.Is
		// already handled by the caller's row.Scan returning it directly.
		return nil, err
	}
	return t, nil
}
