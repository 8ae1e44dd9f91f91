package domain

import (
	"time"

	"github.com/google/uuid"

	"secure-payment-gateway/pkg/money"
)

// Account is a single-currency bookkeeping balance owned by a business.
type Account struct {
	ID               uuid.UUID    `json:"id"`
	BusinessID       uuid.UUID    `json:"business_id"`
	AccountType      string       `json:"account_type"`
	Currency         string       `json:"currency"`
	Balance          money.Amount `json:"balance"`
	AvailableBalance money.Amount `json:"available_balance"`
	Version          int64        `json:"version"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// CanDebit reports whether amount can be drawn from the account without
// leaving a negative available balance.
func (a *Account) CanDebit(amount money.Amount) bool {
	return a.AvailableBalance.Cmp(amount) >= 0
}
