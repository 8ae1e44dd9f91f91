package handler

import (
	"secure-payment-gateway/internal/adapter/http/dto"
	"secure-payment-gateway/internal/adapter/http/middleware"
	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"
	"secure-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WebhookHandler exposes admin-facing read/retry operations over the
// webhook delivery outbox.
type WebhookHandler struct {
	deliverySvc ports.WebhookDeliveryService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(deliverySvc ports.WebhookDeliveryService) *WebhookHandler {
	return &WebhookHandler{deliverySvc: deliverySvc}
}

// List handles GET /v1/webhooks/deliveries.
func (h *WebhookHandler) List(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	cursor := c.Query("cursor")
	limit := parseLimit(c.Query("limit"))

	rows, next, err := h.deliverySvc.List(c.Request.Context(), businessID, cursor, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.WebhookDeliveryListResponse{
		Items:      toWebhookDeliveryResponses(rows),
		NextCursor: next,
	})
}

// Get handles GET /v1/webhooks/deliveries/:id.
func (h *WebhookHandler) Get(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid webhook delivery id"))
		return
	}

	row, svcErr := h.deliverySvc.Get(c.Request.Context(), businessID, id)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.OK(c, dto.NewWebhookDeliveryResponse(row))
}

// Retry handles POST /v1/webhooks/deliveries/:id/retry.
func (h *WebhookHandler) Retry(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid webhook delivery id"))
		return
	}

	if svcErr := h.deliverySvc.Retry(c.Request.Context(), businessID, id); svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	c.Status(204)
}

func toWebhookDeliveryResponses(rows []domain.WebhookOutbox) []dto.WebhookDeliveryResponse {
	out := make([]dto.WebhookDeliveryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.NewWebhookDeliveryResponse(&rows[i]))
	}
	return out
}
