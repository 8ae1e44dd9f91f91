package middleware

import (
	"strconv"

	"secure-payment-gateway/internal/core/domain"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/pkg/apperror"
	"secure-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimit creates middleware enforcing each API key's per-minute quota.
// It must run after APIKeyAuth, which sets CtxAPIKey. Requests degrade to
// "allow" if the limiter itself errors. WindowRateLimiter absorbs Redis
// errors internally and returns an error only when its Postgres counter
// fails, so that is the case this branch covers.
func RateLimit(limiter ports.RateLimiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CtxAPIKey)
		if !exists {
			c.Next()
			return
		}
		apiKey, ok := v.(*domain.ApiKey)
		if !ok {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), apiKey.ID, apiKey.RateLimitPerMin)
		if err != nil {
			log.Warn().Err(err).Str("api_key_id", apiKey.ID.String()).Msg("rate limit check failed, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(apiKey.RateLimitPerMin))
		if !allowed {
			c.Header("Retry-After", "60")
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}
