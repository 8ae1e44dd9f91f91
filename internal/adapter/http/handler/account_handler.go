package handler

import (
	"secure-payment-gateway/internal/adapter/http/dto"
	"secure-payment-gateway/internal/adapter/http/middleware"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"
	"secure-payment-gateway/pkg/money"
	"secure-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles bookkeeping account creation and lookup.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Create handles POST /v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, parseErr := money.FromString(req.InitialBalance)
	if parseErr != nil {
		response.Error(c, apperror.ErrValidation("invalid initial_balance: "+parseErr.Error()))
		return
	}

	account, svcErr := h.accountSvc.Create(c.Request.Context(), ports.CreateAccountRequest{
		BusinessID:     businessID,
		AccountType:    req.AccountType,
		Currency:       req.Currency,
		InitialBalance: amount,
	})
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.Created(c, dto.NewAccountResponse(account))
}

// Get handles GET /v1/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid account id"))
		return
	}

	account, svcErr := h.accountSvc.Get(c.Request.Context(), businessID, id)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.OK(c, dto.NewAccountResponse(account))
}
