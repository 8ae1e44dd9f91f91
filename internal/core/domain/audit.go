package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the kind of state-changing action being recorded.
type AuditAction string

const (
	AuditActionBusinessRegister   AuditAction = "business.register"
	AuditActionAdminLogin         AuditAction = "admin.login"
	AuditActionAPIKeyCreate       AuditAction = "api_key.create"
	AuditActionAPIKeyRevoke       AuditAction = "api_key.revoke"
	AuditActionBusinessUpdateHook AuditAction = "business.update_webhook"
	AuditActionWebhookManualRetry AuditAction = "webhook.manual_retry"
)

// AuditLog is a best-effort record of a state-changing action, written
// outside the engine's atomic unit. It never blocks or fails the
// triggering operation.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	BusinessID   *uuid.UUID  `json:"business_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
