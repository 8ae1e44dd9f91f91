package domain

import (
	"time"

	"github.com/google/uuid"

	"secure-payment-gateway/pkg/money"
)

// LedgerEntryType is one leg's direction against its account.
type LedgerEntryType string

const (
	LedgerEntryTypeDebit  LedgerEntryType = "debit"
	LedgerEntryTypeCredit LedgerEntryType = "credit"
)

// LedgerEntry is one immutable leg of a Transaction's effect on a single
// account, carrying the account's balance immediately after this leg.
type LedgerEntry struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	EntryType     LedgerEntryType `json:"entry_type"`
	Amount        money.Amount    `json:"amount"`
	BalanceAfter  money.Amount    `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SignedAmount returns the entry's amount signed per the usual ledger
// convention: positive for credit entries, negative for debit entries.
func (e *LedgerEntry) SignedAmount() money.Amount {
	if e.EntryType == LedgerEntryTypeDebit {
		return money.Zero().Sub(e.Amount)
	}
	return e.Amount
}
