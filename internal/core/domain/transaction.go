package domain

import (
	"time"

	"github.com/google/uuid"

	"secure-payment-gateway/pkg/money"
)

// TransactionType is the tagged variant a Transaction represents.
type TransactionType string

const (
	TransactionTypeCredit   TransactionType = "credit"
	TransactionTypeDebit    TransactionType = "debit"
	TransactionTypeTransfer TransactionType = "transfer"
)

// TransactionStatus is the lifecycle state of a Transaction. The core
// synchronous path only ever produces TransactionStatusCompleted; pending
// and failed are reserved for asynchronous flows outside the core.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is one applied money movement: credit, debit, or transfer.
type Transaction struct {
	ID                   uuid.UUID         `json:"id"`
	IdempotencyKey       *string           `json:"idempotency_key,omitempty"`
	Type                 TransactionType   `json:"type"`
	Status               TransactionStatus `json:"status"`
	SourceAccountID      *uuid.UUID        `json:"source_account_id,omitempty"`
	DestinationAccountID *uuid.UUID        `json:"destination_account_id,omitempty"`
	Amount               money.Amount      `json:"amount"`
	Currency             string            `json:"currency"`
	Description          *string           `json:"description,omitempty"`
	Metadata             *string           `json:"metadata,omitempty"` // JSON blob, opaque to the engine
	CreatedAt            time.Time         `json:"created_at"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
}

// IsCompleted reports whether the transaction reached its terminal
// successful state.
func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}
