package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPClient is the subset of *http.Client the worker depends on, kept
// narrow so tests can substitute a fake transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	// claimBatchSize bounds how many outbox rows one iteration draws.
	claimBatchSize = 100
	// pollInterval is the sleep between iterations regardless of outcome.
	pollInterval = 1 * time.Second
	// deliveryTimeout bounds a single outbound POST.
	deliveryTimeout = 10 * time.Second
)

// DeliveryWorker polls the webhook outbox and delivers due events,
// rescheduling with exponential backoff on failure. Run as one or more
// concurrent goroutines; FOR UPDATE SKIP LOCKED on ClaimBatch keeps them
// from ever contending for the same row.
type DeliveryWorker struct {
	outboxRepo   ports.WebhookOutboxRepository
	businessRepo ports.BusinessRepository
	sigSvc       ports.SignatureService
	httpClient   HTTPClient
	log          zerolog.Logger
}

// NewDeliveryWorker creates a new DeliveryWorker.
func NewDeliveryWorker(
	outboxRepo ports.WebhookOutboxRepository,
	businessRepo ports.BusinessRepository,
	sigSvc ports.SignatureService,
	httpClient HTTPClient,
	log zerolog.Logger,
) *DeliveryWorker {
	return &DeliveryWorker{
		outboxRepo:   outboxRepo,
		businessRepo: businessRepo,
		sigSvc:       sigSvc,
		httpClient:   httpClient,
		log:          log,
	}
}

// Run loops until ctx is cancelled, claiming and delivering batches. It
// never returns an error: per-event failures are recorded and rescheduled,
// never fatal to the loop.
func (w *DeliveryWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.runOnce(ctx); err != nil {
			w.log.Error().Err(err).Msg("webhook worker: claim batch failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

func (w *DeliveryWorker) runOnce(ctx context.Context) error {
	rows, err := w.outboxRepo.ClaimBatch(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("claim outbox batch: %w", err)
	}
	for i := range rows {
		w.deliver(ctx, &rows[i])
	}
	return nil
}

func (w *DeliveryWorker) deliver(ctx context.Context, row *domain.WebhookOutbox) {
	business, err := w.businessRepo.GetByID(ctx, row.BusinessID)
	if err != nil {
		w.scheduleRetry(ctx, row, fmt.Errorf("load business: %w", err))
		return
	}
	if business == nil {
		w.scheduleRetry(ctx, row, fmt.Errorf("business %s not found", row.BusinessID))
		return
	}
	if !business.HasWebhook() {
		w.markDelivered(ctx, row)
		return
	}

	payloadBytes := []byte(row.Payload)
	signature := w.sigSvc.Sign(*business.WebhookSecret, payloadBytes)

	deliveryCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(deliveryCtx, http.MethodPost, *business.WebhookURL, bytes.NewReader(payloadBytes))
	if err != nil {
		w.scheduleRetry(ctx, row, fmt.Errorf("build request: %w", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Id", row.ID.String())
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set("X-Webhook-Signature", "sha256="+signature)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.scheduleRetry(ctx, row, fmt.Errorf("deliver webhook: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		w.scheduleRetry(ctx, row, fmt.Errorf("non-2xx response: %d", resp.StatusCode))
		return
	}
	w.markDelivered(ctx, row)
}

func (w *DeliveryWorker) markDelivered(ctx context.Context, row *domain.WebhookOutbox) {
	if err := w.outboxRepo.MarkDelivered(ctx, row.ID, time.Now().UTC()); err != nil {
		w.log.Error().Err(err).Str("outbox_id", row.ID.String()).Msg("webhook worker: failed to mark delivered")
	}
}

func (w *DeliveryWorker) scheduleRetry(ctx context.Context, row *domain.WebhookOutbox, cause error) {
	attempts := row.Attempts + 1
	if attempts >= row.MaxAttempts {
		if err := w.outboxRepo.MarkFailed(ctx, row.ID, attempts, cause.Error()); err != nil {
			w.log.Error().Err(err).Str("outbox_id", row.ID.String()).Msg("webhook worker: failed to mark failed")
		}
		return
	}

	nextAttemptAt := time.Now().UTC().Add(backoff(attempts))
	if err := w.outboxRepo.MarkRetrying(ctx, row.ID, attempts, cause.Error(), nextAttemptAt); err != nil {
		w.log.Error().Err(err).Str("outbox_id", row.ID.String()).Msg("webhook worker: failed to mark retrying")
	}
}

// backoff returns min(2^n, 3600) seconds plus up to ~1s of jitter to
// spread thundering herds across concurrent retries.
func backoff(n int) time.Duration {
	capped := math.Min(math.Pow(2, float64(n)), 3600)
	jitter := time.Duration(rand.Int63n(int64(time.Second)))
	return time.Duration(capped)*time.Second + jitter
}
