package dto

import (
	"time"

	"github.com/google/uuid"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/pkg/money"
)

// RegisterBusinessRequest is the request body for tenant signup.
type RegisterBusinessRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// RegisterBusinessResponse returns the new business and its first API
// key. The raw key is shown exactly once and never recoverable again.
type RegisterBusinessResponse struct {
	Business BusinessResponse `json:"business"`
	APIKey   string           `json:"api_key"`
}

// LoginRequest is the request body for admin dashboard login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for a successful admin login.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// BusinessResponse is the public projection of a domain.Business.
type BusinessResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	WebhookURL *string `json:"webhook_url,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// NewBusinessResponse projects a domain.Business into its API shape,
// dropping the password hash and webhook secret.
func NewBusinessResponse(b *domain.Business) BusinessResponse {
	return BusinessResponse{
		ID:         b.ID.String(),
		Name:       b.Name,
		Email:      b.Email,
		WebhookURL: b.WebhookURL,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  b.UpdatedAt.Format(time.RFC3339),
	}
}

// UpdateWebhookRequest updates a business's webhook configuration.
type UpdateWebhookRequest struct {
	WebhookURL   *string `json:"webhook_url,omitempty" binding:"omitempty,safe_url"`
	RotateSecret bool    `json:"rotate_secret"`
}

// CreateAccountRequest is the request body for account creation.
type CreateAccountRequest struct {
	AccountType    string `json:"account_type" binding:"required,oneof=wallet merchant settlement"`
	Currency       string `json:"currency" binding:"required,len=3"`
	InitialBalance string `json:"initial_balance" binding:"required"`
}

// AccountResponse is the public projection of a domain.Account.
type AccountResponse struct {
	ID               string `json:"id"`
	BusinessID       string `json:"business_id"`
	AccountType      string `json:"account_type"`
	Currency         string `json:"currency"`
	Balance          string `json:"balance"`
	AvailableBalance string `json:"available_balance"`
	Version          int64  `json:"version"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// NewAccountResponse projects a domain.Account into its API shape.
func NewAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID.String(),
		BusinessID:       a.BusinessID.String(),
		AccountType:      a.AccountType,
		Currency:         a.Currency,
		Balance:          a.Balance.String(),
		AvailableBalance: a.AvailableBalance.String(),
		Version:          a.Version,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateTransactionRequest is the request body for the single
// credit/debit/transfer endpoint. Exactly one of SourceAccountID /
// DestinationAccountID must be set for credit/debit; both for transfer.
type CreateTransactionRequest struct {
	Type                 string  `json:"type" binding:"required,oneof=credit debit transfer"`
	SourceAccountID      *string `json:"source_account_id,omitempty" binding:"omitempty,uuid"`
	DestinationAccountID *string `json:"destination_account_id,omitempty" binding:"omitempty,uuid"`
	Amount               string  `json:"amount" binding:"required"`
	Currency             string  `json:"currency" binding:"required,len=3"`
	Description          *string `json:"description,omitempty" binding:"omitempty,max=500"`
	Metadata             *string `json:"metadata,omitempty"`
	IdempotencyKey       string  `json:"-"` // populated from the Idempotency-Key header, not the body
}

// ParseAmount parses the request's decimal amount string.
func (r CreateTransactionRequest) ParseAmount() (money.Amount, error) {
	return money.FromString(r.Amount)
}

// ParseSourceAccountID parses SourceAccountID if present.
func (r CreateTransactionRequest) ParseSourceAccountID() (*uuid.UUID, error) {
	return parseOptionalUUID(r.SourceAccountID)
}

// ParseDestinationAccountID parses DestinationAccountID if present.
func (r CreateTransactionRequest) ParseDestinationAccountID() (*uuid.UUID, error) {
	return parseOptionalUUID(r.DestinationAccountID)
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// TransactionResponse is the public projection of a domain.Transaction.
type TransactionResponse struct {
	ID                   string  `json:"id"`
	IdempotencyKey       *string `json:"idempotency_key,omitempty"`
	Type                 string  `json:"type"`
	Status               string  `json:"status"`
	SourceAccountID      *string `json:"source_account_id,omitempty"`
	DestinationAccountID *string `json:"destination_account_id,omitempty"`
	Amount               string  `json:"amount"`
	Currency             string  `json:"currency"`
	Description          *string `json:"description,omitempty"`
	Metadata             *string `json:"metadata,omitempty"`
	CreatedAt            string  `json:"created_at"`
	CompletedAt          *string `json:"completed_at,omitempty"`
}

// NewTransactionResponse projects a domain.Transaction into its API shape.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:             t.ID.String(),
		IdempotencyKey: t.IdempotencyKey,
		Type:           string(t.Type),
		Status:         string(t.Status),
		Amount:         t.Amount.String(),
		Currency:       t.Currency,
		Description:    t.Description,
		Metadata:       t.Metadata,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
	if t.SourceAccountID != nil {
		s := t.SourceAccountID.String()
		resp.SourceAccountID = &s
	}
	if t.DestinationAccountID != nil {
		s := t.DestinationAccountID.String()
		resp.DestinationAccountID = &s
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

// TransactionListResponse wraps a cursor-paginated transaction page.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// WebhookDeliveryResponse is the public projection of a
// domain.WebhookOutbox row.
type WebhookDeliveryResponse struct {
	ID            string  `json:"id"`
	EventType     string  `json:"event_type"`
	Status        string  `json:"status"`
	Attempts      int     `json:"attempts"`
	MaxAttempts   int     `json:"max_attempts"`
	NextAttemptAt string  `json:"next_attempt_at"`
	LastError     *string `json:"last_error,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
}

// NewWebhookDeliveryResponse projects a domain.WebhookOutbox into its API
// shape.
func NewWebhookDeliveryResponse(w *domain.WebhookOutbox) WebhookDeliveryResponse {
	resp := WebhookDeliveryResponse{
		ID:            w.ID.String(),
		EventType:     w.EventType,
		Status:        string(w.Status),
		Attempts:      w.Attempts,
		MaxAttempts:   w.MaxAttempts,
		NextAttemptAt: w.NextAttemptAt.Format(time.RFC3339),
		LastError:     w.LastError,
		CreatedAt:     w.CreatedAt.Format(time.RFC3339),
	}
	if w.ProcessedAt != nil {
		s := w.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

// WebhookDeliveryListResponse wraps a cursor-paginated delivery page.
type WebhookDeliveryListResponse struct {
	Items      []WebhookDeliveryResponse `json:"items"`
	NextCursor string                    `json:"next_cursor,omitempty"`
}
