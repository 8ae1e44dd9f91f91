package handler

import (
	"strconv"

	"secure-payment-gateway/internal/adapter/http/dto"
	"secure-payment-gateway/internal/adapter/http/middleware"
	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"
	"secure-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles the engine's single credit/debit/transfer
// entry point, plus read-only transaction lookup and listing.
type TransactionHandler struct {
	engine       ports.TransactionEngine
	reportingSvc ports.ReportingService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(engine ports.TransactionEngine, reportingSvc ports.ReportingService) *TransactionHandler {
	return &TransactionHandler{engine: engine, reportingSvc: reportingSvc}
}

// Create handles POST /v1/transactions. The Idempotency-Key header, when
// present, is threaded through to the engine; a request without one is
// never deduplicated.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrValidation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	amount, err := req.ParseAmount()
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid amount: "+err.Error()))
		return
	}
	sourceID, err := req.ParseSourceAccountID()
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid source_account_id"))
		return
	}
	destID, err := req.ParseDestinationAccountID()
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid destination_account_id"))
		return
	}

	applyReq := ports.ApplyRequest{
		Type:                 domain.TransactionType(req.Type),
		SourceAccountID:      sourceID,
		DestinationAccountID: destID,
		Amount:               amount,
		Currency:             req.Currency,
		Description:          req.Description,
		Metadata:             req.Metadata,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		applyReq.IdempotencyKey = &key
	}

	tx, created, applyErr := h.engine.Apply(c.Request.Context(), applyReq)
	if applyErr != nil {
		response.Error(c, applyErr)
		return
	}

	resp := dto.NewTransactionResponse(tx)
	if created {
		response.Created(c, resp)
	} else {
		response.OK(c, resp)
	}
}

// Get handles GET /v1/transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid transaction id"))
		return
	}

	tx, svcErr := h.reportingSvc.GetTransaction(c.Request.Context(), businessID, id)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.OK(c, dto.NewTransactionResponse(tx))
}

// List handles GET /v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	cursor := c.Query("cursor")
	limit := parseLimit(c.Query("limit"))

	txns, next, svcErr := h.reportingSvc.ListTransactions(c.Request.Context(), businessID, cursor, limit)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.OK(c, dto.TransactionListResponse{
		Items:      toTransactionResponses(txns),
		NextCursor: next,
	})
}

// ListByAccount handles GET /v1/accounts/:id/transactions.
func (h *TransactionHandler) ListByAccount(c *gin.Context) {
	businessID, ok := middleware.BusinessIDFromContext(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidAPIKey())
		return
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidation("invalid account id"))
		return
	}

	cursor := c.Query("cursor")
	limit := parseLimit(c.Query("limit"))

	txns, next, svcErr := h.reportingSvc.ListAccountTransactions(c.Request.Context(), businessID, accountID, cursor, limit)
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}
	response.OK(c, dto.TransactionListResponse{
		Items:      toTransactionResponses(txns),
		NextCursor: next,
	})
}

func toTransactionResponses(txns []domain.Transaction) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, dto.NewTransactionResponse(&txns[i]))
	}
	return out
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
