package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
)

const defaultRateLimitPerMinute = 100

// BusinessServiceImpl implements ports.BusinessService: tenant signup,
// admin login, and dashboard profile/webhook administration.
type BusinessServiceImpl struct {
	businessRepo ports.BusinessRepository
	apiKeyRepo   ports.ApiKeyRepository
	hashSvc      ports.HashService
	credSvc      ports.CredentialService
	tokenSvc     ports.TokenService
}

// NewBusinessService creates a new BusinessServiceImpl.
func NewBusinessService(
	businessRepo ports.BusinessRepository,
	apiKeyRepo ports.ApiKeyRepository,
	hashSvc ports.HashService,
	credSvc ports.CredentialService,
	tokenSvc ports.TokenService,
) *BusinessServiceImpl {
	return &BusinessServiceImpl{
		businessRepo: businessRepo,
		apiKeyRepo:   apiKeyRepo,
		hashSvc:      hashSvc,
		credSvc:      credSvc,
		tokenSvc:     tokenSvc,
	}
}

var _ ports.BusinessService = (*BusinessServiceImpl)(nil)

// Register creates a business and its first API key, returned in raw form
// exactly once. A duplicate email surfaces as an unclassified database
// error per the core's error propagation rules; callers pre-validate.
func (s *BusinessServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.RegisterResponse, error) {
	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	webhookSecret, err := generateWebhookSecret()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate webhook secret: %w", err))
	}

	now := time.Now().UTC()
	business := &domain.Business{
		ID:            uuid.New(),
		Name:          req.Name,
		Email:         req.Email,
		WebhookSecret: &webhookSecret,
		PasswordHash:  passwordHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.businessRepo.Create(ctx, business); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("create business: %w", err))
	}

	rawKey, prefix, hash, err := s.credSvc.IssueKey()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue api key: %w", err))
	}
	apiKey := &domain.ApiKey{
		ID:              uuid.New(),
		BusinessID:      business.ID,
		KeyHash:         hash,
		KeyPrefix:       prefix,
		RateLimitPerMin: defaultRateLimitPerMinute,
		CreatedAt:       now,
	}
	if err := s.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, apperror.ErrDatabase(fmt.Errorf("create api key: %w", err))
	}

	return &ports.RegisterResponse{Business: business, APIKey: rawKey}, nil
}

// Login validates admin dashboard credentials and issues a session JWT.
func (s *BusinessServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	business, err := s.businessRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find business: %w", err))
	}
	if business == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, business.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(business.ID)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate session token: %w", err))
	}
	return token, expiresAt, nil
}

// GetProfile returns a business's dashboard profile.
func (s *BusinessServiceImpl) GetProfile(ctx context.Context, businessID uuid.UUID) (*domain.Business, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find business: %w", err))
	}
	if business == nil {
		return nil, apperror.ErrBusinessNotFound()
	}
	return business, nil
}

// UpdateWebhook updates the webhook URL and, when requested, rotates the
// webhook secret used to sign outgoing deliveries.
func (s *BusinessServiceImpl) UpdateWebhook(ctx context.Context, businessID uuid.UUID, webhookURL *string, rotateSecret bool) error {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find business: %w", err))
	}
	if business == nil {
		return apperror.ErrBusinessNotFound()
	}

	secret := business.WebhookSecret
	if rotateSecret {
		newSecret, err := generateWebhookSecret()
		if err != nil {
			return apperror.InternalError(fmt.Errorf("generate webhook secret: %w", err))
		}
		secret = &newSecret
	}

	if err := s.businessRepo.UpdateWebhook(ctx, businessID, webhookURL, secret); err != nil {
		return apperror.ErrDatabase(fmt.Errorf("update webhook: %w", err))
	}
	return nil
}

// generateWebhookSecret draws 32 random bytes, URL-safe base64 encoded,
// matching spec.md §3's Business.webhook_secret format.
func generateWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
