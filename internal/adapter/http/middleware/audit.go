package middleware

import (
	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that records successful write
// operations. It maps HTTP methods and paths to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		action, resourceType := mapPathToAction(c.Request.URL.Path, c.Request.Method)
		if action == "" {
			return
		}

		var businessID *uuid.UUID
		if id, ok := BusinessIDFromContext(c); ok {
			businessID = &id
		}

		details := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}

		auditSvc.Record(c.Request.Context(), businessID, action, resourceType, "", c.ClientIP(), details)
	}
}

func mapPathToAction(path, method string) (domain.AuditAction, string) {
	switch {
	case path == "/v1/businesses" && method == "POST":
		return domain.AuditActionBusinessRegister, "business"
	case path == "/v1/admin/login" && method == "POST":
		return domain.AuditActionAdminLogin, "session"
	case path == "/v1/admin/webhook" && method == "PUT":
		return domain.AuditActionBusinessUpdateHook, "business"
	default:
		if method == "POST" && len(path) > len("/v1/webhooks/deliveries/") && path[len(path)-6:] == "/retry" {
			return domain.AuditActionWebhookManualRetry, "webhook_delivery"
		}
	}
	return "", ""
}
