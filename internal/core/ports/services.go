package ports

import (
	"context"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/pkg/money"

	"github.com/google/uuid"
)

// --- Cryptographic primitives ---

// HashService handles memory-hard password/credential hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// SignatureService handles HMAC-SHA256 signing and verification of
// webhook payloads.
type SignatureService interface {
	Sign(secret string, payload []byte) string
	Verify(secret string, payload []byte, signature string) bool
}

// EncryptionService handles AES-256-GCM encryption/decryption of secret
// material (webhook secrets, admin credentials at rest).
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenService handles JWT admin-session token operations.
type TokenService interface {
	Generate(businessID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*AdminClaims, error)
}

// AdminClaims holds the parsed admin-session JWT claims.
type AdminClaims struct {
	BusinessID uuid.UUID
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// --- Redis-backed fast paths (never the system of record) ---

// IdempotencyCache is the fast-path idempotency lookup in front of the
// authoritative Postgres check.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (uuid.UUID, bool, error)
	Set(ctx context.Context, key string, transactionID uuid.UUID, ttl time.Duration) error
}

// RateLimitCache is the fast-path admission check in front of the
// authoritative Postgres upsert.
type RateLimitCache interface {
	IncrementAndGet(ctx context.Context, apiKeyID uuid.UUID, windowStart time.Time, ttl time.Duration) (int, error)
}

// --- Core engine ---

// TransactionEngine applies credit/debit/transfer operations atomically
// and enforces idempotency. This is the heart of the core.
type TransactionEngine interface {
	// Apply returns the persisted Transaction and whether it was newly
	// created (false on an idempotent replay).
	Apply(ctx context.Context, req ApplyRequest) (tx *domain.Transaction, created bool, err error)
}

// ApplyRequest carries validated input for one engine operation.
type ApplyRequest struct {
	Type                 domain.TransactionType
	SourceAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	Amount               money.Amount
	Currency             string
	Description          *string
	Metadata             *string
	IdempotencyKey       *string
}

// RateLimiter admits or rejects a request for an API key, consulting the
// fast-path cache before the authoritative durable counter.
type RateLimiter interface {
	Allow(ctx context.Context, apiKeyID uuid.UUID, limitPerMinute int) (bool, error)
}

// CredentialService issues and verifies API keys.
type CredentialService interface {
	// IssueKey generates a new raw key, its prefix, and its stored hash.
	IssueKey() (rawKey string, prefix string, hash string, err error)
	// Verify checks a bearer token against a stored hash.
	Verify(rawKey string, hash string) (bool, error)
}

// BusinessService handles tenant signup and dashboard administration.
type BusinessService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error)
	GetProfile(ctx context.Context, businessID uuid.UUID) (*domain.Business, error)
	UpdateWebhook(ctx context.Context, businessID uuid.UUID, webhookURL *string, rotateSecret bool) error
}

// RegisterRequest holds input for business registration.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// RegisterResponse holds the registration result shown once: the business
// and its first API key in raw form.
type RegisterResponse struct {
	Business *domain.Business
	APIKey   string
}

// WebhookDeliveryService exposes admin-facing webhook delivery operations
// layered over the outbox and delivery worker.
type WebhookDeliveryService interface {
	Get(ctx context.Context, businessID, id uuid.UUID) (*domain.WebhookOutbox, error)
	List(ctx context.Context, businessID uuid.UUID, cursor string, limit int) ([]domain.WebhookOutbox, string, error)
	Retry(ctx context.Context, businessID, id uuid.UUID) error
}

// ReportingService exposes transaction listing/lookup for the request
// surface.
type ReportingService interface {
	GetTransaction(ctx context.Context, businessID, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, businessID uuid.UUID, cursor string, limit int) ([]domain.Transaction, string, error)
	ListAccountTransactions(ctx context.Context, businessID, accountID uuid.UUID, cursor string, limit int) ([]domain.Transaction, string, error)
}

// AuditService records best-effort audit entries outside the triggering
// operation's critical path.
type AuditService interface {
	Record(ctx context.Context, businessID *uuid.UUID, action domain.AuditAction, resourceType, resourceID, ipAddress string, details interface{})
}

// AccountService creates and looks up bookkeeping accounts for the
// request surface. Account creation sits outside the spec's core engine
// contract (which only moves money between existing accounts) but is
// necessary glue for the core to be reachable over HTTP at all.
type AccountService interface {
	Create(ctx context.Context, req CreateAccountRequest) (*domain.Account, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*domain.Account, error)
}

// CreateAccountRequest carries validated input for account creation.
type CreateAccountRequest struct {
	BusinessID     uuid.UUID
	AccountType    string
	Currency       string
	InitialBalance money.Amount
}
