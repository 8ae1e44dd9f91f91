package handler

import (
	"secure-payment-gateway/internal/adapter/http/dto"
	"secure-payment-gateway/internal/adapter/http/middleware"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"
	"secure-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// BusinessHandler handles tenant signup, admin login, and dashboard
// profile/webhook administration.
type BusinessHandler struct {
	businessSvc ports.BusinessService
}

// NewBusinessHandler creates a new BusinessHandler.
func NewBusinessHandler(businessSvc ports.BusinessService) *BusinessHandler {
	return &BusinessHandler{businessSvc: businessSvc}
}

// Register handles POST /v1/businesses.
func (h *BusinessHandler) Register(c *gin.Context) {
	var req dto.RegisterBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.businessSvc.Register(c.Request.Context(), ports.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.RegisterBusinessResponse{
		Business: dto.NewBusinessResponse(result.Business),
		APIKey:   result.APIKey,
	})
}

// Login handles POST /v1/admin/login.
func (h *BusinessHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	token, expiresAt, err := h.businessSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Me handles GET /v1/admin/me.
func (h *BusinessHandler) Me(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidSession())
		return
	}

	business, err := h.businessSvc.GetProfile(c.Request.Context(), businessID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBusinessResponse(business))
}

// UpdateWebhook handles PUT /v1/admin/webhook.
func (h *BusinessHandler) UpdateWebhook(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidSession())
		return
	}

	var req dto.UpdateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.businessSvc.UpdateWebhook(c.Request.Context(), businessID, req.WebhookURL, req.RotateSecret); err != nil {
		response.Error(c, err)
		return
	}

	business, err := h.businessSvc.GetProfile(c.Request.Context(), businessID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBusinessResponse(business))
}
