package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"secure-payment-gateway/pkg/money"
)

func TestAccount_CanDebit(t *testing.T) {
	fifty, _ := money.FromString("50.00")
	hundred, _ := money.FromString("100.00")

	tests := []struct {
		name      string
		available money.Amount
		amount    money.Amount
		want      bool
	}{
		{"exact balance", fifty, fifty, true},
		{"more than balance", fifty, hundred, false},
		{"less than balance", hundred, fifty, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{AvailableBalance: tt.available}
			assert.Equal(t, tt.want, a.CanDebit(tt.amount))
		})
	}
}

func TestTransaction_IsCompleted(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{"pending", TransactionStatusPending, false},
		{"completed", TransactionStatusCompleted, true},
		{"failed", TransactionStatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.status}
			assert.Equal(t, tt.want, tx.IsCompleted())
		})
	}
}

func TestLedgerEntry_SignedAmount(t *testing.T) {
	amt, _ := money.FromString("100.00")

	credit := &LedgerEntry{EntryType: LedgerEntryTypeCredit, Amount: amt}
	assert.Equal(t, 0, credit.SignedAmount().Cmp(amt))

	debit := &LedgerEntry{EntryType: LedgerEntryTypeDebit, Amount: amt}
	want, _ := money.FromString("-100.00")
	assert.Equal(t, 0, debit.SignedAmount().Cmp(want))
}

func TestWebhookOutbox_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status WebhookOutboxStatus
		want   bool
	}{
		{"pending", WebhookOutboxStatusPending, false},
		{"retrying", WebhookOutboxStatusRetrying, false},
		{"delivered", WebhookOutboxStatusDelivered, true},
		{"failed", WebhookOutboxStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &WebhookOutbox{Status: tt.status}
			assert.Equal(t, tt.want, w.IsTerminal())
		})
	}
}

func TestApiKey_IsUsable(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fresh key", func(t *testing.T) {
		k := &ApiKey{}
		assert.True(t, k.IsUsable(now))
	})

	t.Run("revoked", func(t *testing.T) {
		revokedAt := now.Add(-time.Hour)
		k := &ApiKey{RevokedAt: &revokedAt}
		assert.False(t, k.IsUsable(now))
	})

	t.Run("expired", func(t *testing.T) {
		expiresAt := now.Add(-time.Minute)
		k := &ApiKey{ExpiresAt: &expiresAt}
		assert.False(t, k.IsUsable(now))
	})

	t.Run("not yet expired", func(t *testing.T) {
		expiresAt := now.Add(time.Minute)
		k := &ApiKey{ExpiresAt: &expiresAt}
		assert.True(t, k.IsUsable(now))
	})
}

func TestBusiness_HasWebhook(t *testing.T) {
	empty := ""
	url := "https://example.com/hook"

	assert.False(t, (&Business{}).HasWebhook())
	assert.False(t, (&Business{WebhookURL: &empty}).HasWebhook())
	assert.True(t, (&Business{WebhookURL: &url}).HasWebhook())
}

func TestWindowStart_TruncatesToMinute(t *testing.T) {
	ts := time.Date(2026, 1, 1, 12, 34, 56, 789, time.UTC)
	want := time.Date(2026, 1, 1, 12, 34, 0, 0, time.UTC)
	assert.Equal(t, want, WindowStart(ts))
}

func TestAuditAction_Constants(t *testing.T) {
	assert.Equal(t, AuditAction("business.register"), AuditActionBusinessRegister)
	assert.Equal(t, AuditAction("webhook.manual_retry"), AuditActionWebhookManualRetry)
}
