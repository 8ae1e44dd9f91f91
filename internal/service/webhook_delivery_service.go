package service

import (
	"context"
	"fmt"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
)

// WebhookDeliveryServiceImpl implements ports.WebhookDeliveryService, the
// admin-facing read/retry surface over the outbox the delivery worker
// drains independently.
type WebhookDeliveryServiceImpl struct {
	outboxRepo ports.WebhookOutboxRepository
}

// NewWebhookDeliveryService creates a new WebhookDeliveryServiceImpl.
func NewWebhookDeliveryService(outboxRepo ports.WebhookOutboxRepository) *WebhookDeliveryServiceImpl {
	return &WebhookDeliveryServiceImpl{outboxRepo: outboxRepo}
}

var _ ports.WebhookDeliveryService = (*WebhookDeliveryServiceImpl)(nil)

// Get fetches a single outbox row, scoped to businessID.
func (s *WebhookDeliveryServiceImpl) Get(ctx context.Context, businessID, id uuid.UUID) (*domain.WebhookOutbox, error) {
	row, err := s.outboxRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find webhook delivery: %w", err))
	}
	if row == nil || row.BusinessID != businessID {
		return nil, apperror.ErrNotFound("webhook delivery")
	}
	return row, nil
}

// List lists outbox rows for businessID, cursor-paginated.
func (s *WebhookDeliveryServiceImpl) List(ctx context.Context, businessID uuid.UUID, cursor string, limit int) ([]domain.WebhookOutbox, string, error) {
	rows, next, err := s.outboxRepo.List(ctx, businessID, cursor, limit)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("list webhook deliveries: %w", err))
	}
	return rows, next, nil
}

// Retry resets a failed delivery to pending so the worker picks it back up.
// It is a no-op reported as not-found if the row is not currently failed.
func (s *WebhookDeliveryServiceImpl) Retry(ctx context.Context, businessID, id uuid.UUID) error {
	row, err := s.outboxRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find webhook delivery: %w", err))
	}
	if row == nil || row.BusinessID != businessID {
		return apperror.ErrNotFound("webhook delivery")
	}

	reset, err := s.outboxRepo.ResetForManualRetry(ctx, id, time.Now().UTC())
	if err != nil {
		return apperror.InternalError(fmt.Errorf("reset webhook delivery: %w", err))
	}
	if !reset {
		return apperror.ErrNotFound("webhook delivery")
	}
	return nil
}
