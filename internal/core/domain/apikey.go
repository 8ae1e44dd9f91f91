package domain

import (
	"time"

	"github.com/google/uuid"
)

// ApiKey is a credential for a business. The raw key is only available at
// creation time; the store holds only its hash and a lookup prefix.
type ApiKey struct {
	ID              uuid.UUID  `json:"id"`
	BusinessID      uuid.UUID  `json:"business_id"`
	KeyHash         string     `json:"-"`
	KeyPrefix       string     `json:"key_prefix"`
	RateLimitPerMin int        `json:"rate_limit_per_minute"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	LastUsedAt      *time.Time `json:"last_used_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsUsable reports whether the key may still authenticate a request: not
// revoked and not expired as of now.
func (k *ApiKey) IsUsable(now time.Time) bool {
	if k.RevokedAt != nil {
		return false
	}
	if k.ExpiresAt != nil && now.After(*k.ExpiresAt) {
		return false
	}
	return true
}
