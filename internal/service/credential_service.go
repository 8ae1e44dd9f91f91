package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"secure-payment-gateway/internal/core/ports"
)

const (
	apiKeyPrefix = "payx_"
	apiKeyBytes  = 32
	keyPrefixLen = 12
)

// ApiKeyCredentialService implements ports.CredentialService, issuing and
// verifying bearer API keys on top of the same Argon2id primitive used for
// admin passwords.
type ApiKeyCredentialService struct {
	hashSvc ports.HashService
}

// NewApiKeyCredentialService creates a new ApiKeyCredentialService.
func NewApiKeyCredentialService(hashSvc ports.HashService) *ApiKeyCredentialService {
	return &ApiKeyCredentialService{hashSvc: hashSvc}
}

var _ ports.CredentialService = (*ApiKeyCredentialService)(nil)

// IssueKey draws 32 random bytes, encodes them URL-safe without padding,
// and prefixes the result with the payx_ tag. The first 12 characters of
// the raw key become its lookup prefix.
func (s *ApiKeyCredentialService) IssueKey() (rawKey string, prefix string, hash string, err error) {
	buf := make([]byte, apiKeyBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("generate api key: %w", err)
	}

	rawKey = apiKeyPrefix + base64.RawURLEncoding.EncodeToString(buf)
	if len(rawKey) < keyPrefixLen {
		return "", "", "", fmt.Errorf("generated key shorter than prefix length")
	}
	prefix = rawKey[:keyPrefixLen]

	hash, err = s.hashSvc.Hash(rawKey)
	if err != nil {
		return "", "", "", fmt.Errorf("hash api key: %w", err)
	}
	return rawKey, prefix, hash, nil
}

// Verify checks rawKey against its stored hash.
func (s *ApiKeyCredentialService) Verify(rawKey string, hash string) (bool, error) {
	return s.hashSvc.Verify(rawKey, hash)
}
