package domain

import (
	"time"

	"github.com/google/uuid"
)

// RateLimitWindow is the (api_key_id, window_start) counter upserted
// atomically by the rate limiter. window_start is the minute boundary the
// count belongs to.
type RateLimitWindow struct {
	ApiKeyID     uuid.UUID `json:"api_key_id"`
	WindowStart  time.Time `json:"window_start"`
	RequestCount int       `json:"request_count"`
}

// WindowStart truncates t to the minute boundary it falls in.
func WindowStart(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}
