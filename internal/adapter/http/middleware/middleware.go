package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"
	"secure-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Context keys
	CtxBusinessID = "business_id"
	CtxAPIKey     = "api_key"

	// apiKeyPrefixLen matches ApiKeyCredentialService's keyPrefixLen.
	apiKeyPrefixLen = 12
)

// APIKeyAuth authenticates requests bearing a raw API key in the
// Authorization header ("Bearer <key>"). The key's prefix is looked up
// first to find its candidate row, then the full key is verified against
// the stored hash — the hash itself is never used for lookup.
func APIKeyAuth(apiKeyRepo ports.ApiKeyRepository, credSvc ports.CredentialService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, apperror.ErrInvalidAPIKey())
			c.Abort()
			return
		}
		rawKey := strings.TrimPrefix(authHeader, prefix)
		if len(rawKey) < apiKeyPrefixLen {
			response.Error(c, apperror.ErrInvalidAPIKey())
			c.Abort()
			return
		}

		apiKey, err := apiKeyRepo.GetByPrefix(c.Request.Context(), rawKey[:apiKeyPrefixLen])
		if err != nil {
			log.Error().Err(err).Msg("failed to look up api key")
			response.Error(c, apperror.InternalError(err))
			c.Abort()
			return
		}
		if apiKey == nil {
			response.Error(c, apperror.ErrInvalidAPIKey())
			c.Abort()
			return
		}

		valid, err := credSvc.Verify(rawKey, apiKey.KeyHash)
		if err != nil {
			log.Error().Err(err).Msg("api key verification error")
			response.Error(c, apperror.InternalError(err))
			c.Abort()
			return
		}
		if !valid || !apiKey.IsUsable(time.Now().UTC()) {
			response.Error(c, apperror.ErrInvalidAPIKey())
			c.Abort()
			return
		}

		go touchLastUsed(apiKeyRepo, apiKey.ID, log)

		c.Set(CtxBusinessID, apiKey.BusinessID)
		c.Set(CtxAPIKey, apiKey)
		c.Next()
	}
}

// touchLastUsed records API key usage best-effort, off the request path.
func touchLastUsed(apiKeyRepo ports.ApiKeyRepository, apiKeyID uuid.UUID, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiKeyRepo.TouchLastUsed(ctx, apiKeyID, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Str("api_key_id", apiKeyID.String()).Msg("failed to touch api key last_used_at")
	}
}

// AdminSessionAuth validates the admin dashboard's JWT session token.
func AdminSessionAuth(tokenSvc ports.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, apperror.ErrInvalidSession())
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, prefix)
		claims, err := tokenSvc.Validate(tokenStr)
		if err != nil {
			response.Error(c, apperror.ErrInvalidSession())
			c.Abort()
			return
		}

		c.Set(CtxBusinessID, claims.BusinessID)
		c.Next()
	}
}

// BusinessIDFromContext extracts the authenticated business ID set by
// APIKeyAuth or AdminSessionAuth. ok is false if called on an
// unauthenticated route.
func BusinessIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(CtxBusinessID)
	if !exists {
		return uuid.UUID{}, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"code":    "internal_error",
						"message": "internal server error",
					},
				})
			}
		}()
		c.Next()
	}
}
