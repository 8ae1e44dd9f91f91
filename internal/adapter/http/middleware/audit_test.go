package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"secure-payment-gateway/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeAuditService struct {
	recorded chan domain.AuditAction
}

func newFakeAuditService() *fakeAuditService {
	return &fakeAuditService{recorded: make(chan domain.AuditAction, 1)}
}

func (f *fakeAuditService) Record(ctx context.Context, businessID *uuid.UUID, action domain.AuditAction, resourceType, resourceID, ipAddress string, details interface{}) {
	f.recorded <- action
}

func TestAuditLog_RecordsOnSuccessfulWrite(t *testing.T) {
	auditSvc := newFakeAuditService()

	r := gin.New()
	r.Use(AuditLog(auditSvc))
	r.POST("/v1/businesses", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/businesses", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	select {
	case action := <-auditSvc.recorded:
		assert.Equal(t, domain.AuditActionBusinessRegister, action)
	case <-time.After(time.Second):
		t.Fatal("audit not recorded")
	}
}

func TestAuditLog_SkipsGET(t *testing.T) {
	auditSvc := newFakeAuditService()

	r := gin.New()
	r.Use(AuditLog(auditSvc))
	r.GET("/v1/transactions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case <-auditSvc.recorded:
		t.Fatal("audit should not be recorded for GET")
	default:
	}
}

func TestAuditLog_SkipsFailedRequests(t *testing.T) {
	auditSvc := newFakeAuditService()

	r := gin.New()
	r.Use(AuditLog(auditSvc))
	r.POST("/v1/businesses", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/businesses", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	select {
	case <-auditSvc.recorded:
		t.Fatal("audit should not be recorded for a failed request")
	default:
	}
}

func TestAuditLog_RecordsManualRetry(t *testing.T) {
	auditSvc := newFakeAuditService()

	r := gin.New()
	r.Use(AuditLog(auditSvc))
	r.POST("/v1/webhooks/deliveries/:id/retry", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/deliveries/"+uuid.New().String()+"/retry", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	select {
	case action := <-auditSvc.recorded:
		assert.Equal(t, domain.AuditActionWebhookManualRetry, action)
	case <-time.After(time.Second):
		t.Fatal("audit not recorded")
	}
}

func TestMapPathToAction(t *testing.T) {
	tests := []struct {
		path     string
		method   string
		action   domain.AuditAction
		resource string
	}{
		{"/v1/businesses", "POST", domain.AuditActionBusinessRegister, "business"},
		{"/v1/admin/login", "POST", domain.AuditActionAdminLogin, "session"},
		{"/v1/admin/webhook", "PUT", domain.AuditActionBusinessUpdateHook, "business"},
		{"/v1/webhooks/deliveries/" + uuid.New().String() + "/retry", "POST", domain.AuditActionWebhookManualRetry, "webhook_delivery"},
		{"/unknown", "POST", "", ""},
	}

	for _, tc := range tests {
		action, resource := mapPathToAction(tc.path, tc.method)
		assert.Equal(t, tc.action, action, "path=%s method=%s", tc.path, tc.method)
		assert.Equal(t, tc.resource, resource, "path=%s method=%s", tc.path, tc.method)
	}
}
