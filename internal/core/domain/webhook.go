package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookOutboxStatus is the delivery lifecycle state of an outbox row.
type WebhookOutboxStatus string

const (
	WebhookOutboxStatusPending   WebhookOutboxStatus = "pending"
	WebhookOutboxStatusRetrying  WebhookOutboxStatus = "retrying"
	WebhookOutboxStatusDelivered WebhookOutboxStatus = "delivered"
	WebhookOutboxStatusFailed    WebhookOutboxStatus = "failed"
)

// DefaultMaxAttempts is the number of delivery attempts before an outbox
// row is abandoned as failed.
const DefaultMaxAttempts = 5

// WebhookOutbox is a durable delivery task, written inside the same
// transaction as the Transaction that produced it. It is the only bridge
// between the synchronous engine and the asynchronous delivery worker.
type WebhookOutbox struct {
	ID            uuid.UUID           `json:"id"`
	BusinessID    uuid.UUID           `json:"business_id"`
	EventType     string              `json:"event_type"`
	Payload       string              `json:"payload"` // JSON: {payload_id, event_type, created_at, data}
	Status        WebhookOutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	MaxAttempts   int                 `json:"max_attempts"`
	NextAttemptAt time.Time           `json:"next_attempt_at"`
	LastError     *string             `json:"last_error,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	ProcessedAt   *time.Time          `json:"processed_at,omitempty"`
}

// IsTerminal reports whether the row has reached a final state and the
// worker should no longer attempt delivery.
func (w *WebhookOutbox) IsTerminal() bool {
	return w.Status == WebhookOutboxStatusDelivered || w.Status == WebhookOutboxStatusFailed
}

// WebhookPayload is the JSON document carried in WebhookOutbox.Payload and
// transmitted byte-for-byte as the delivery body.
type WebhookPayload struct {
	ID        uuid.UUID   `json:"payload_id"`
	EventType string      `json:"event_type"`
	CreatedAt time.Time   `json:"created_at"`
	Data      interface{} `json:"data"`
}
