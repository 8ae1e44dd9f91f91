package domain

import (
	"time"

	"github.com/google/uuid"
)

// Business is a tenant of the service. It is created on signup, mutated by
// admin updates, and never deleted in the core.
type Business struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	WebhookURL    *string   `json:"webhook_url,omitempty"`
	WebhookSecret *string   `json:"-"` // 32 random bytes, URL-safe base64; never exposed
	PasswordHash  string    `json:"-"` // admin dashboard login credential
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasWebhook reports whether the business has a webhook URL configured.
func (b *Business) HasWebhook() bool {
	return b.WebhookURL != nil && *b.WebhookURL != ""
}
