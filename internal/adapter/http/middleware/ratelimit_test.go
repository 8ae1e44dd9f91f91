package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"secure-payment-gateway/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeRateLimiter struct {
	allow bool
	err   error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, apiKeyID uuid.UUID, limitPerMinute int) (bool, error) {
	return f.allow, f.err
}

func setAPIKey(c *gin.Context, key *domain.ApiKey) {
	c.Set(CtxAPIKey, key)
}

func TestRateLimit_SkipsWithoutAPIKeyInContext(t *testing.T) {
	log := zerolog.Nop()
	limiter := &fakeRateLimiter{allow: false}

	router := gin.New()
	router.GET("/test", RateLimit(limiter, log), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_AllowsWithinBudget(t *testing.T) {
	log := zerolog.Nop()
	limiter := &fakeRateLimiter{allow: true}
	apiKey := &domain.ApiKey{ID: uuid.New(), RateLimitPerMin: 100}

	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		setAPIKey(c, apiKey)
		c.Next()
	}, RateLimit(limiter, log), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_BlocksOverBudget(t *testing.T) {
	log := zerolog.Nop()
	limiter := &fakeRateLimiter{allow: false}
	apiKey := &domain.ApiKey{ID: uuid.New(), RateLimitPerMin: 1}

	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		setAPIKey(c, apiKey)
		c.Next()
	}, RateLimit(limiter, log), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_DegradesOpenOnLimiterError(t *testing.T) {
	log := zerolog.Nop()
	limiter := &fakeRateLimiter{err: assert.AnError}
	apiKey := &domain.ApiKey{ID: uuid.New(), RateLimitPerMin: 100}

	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		setAPIKey(c, apiKey)
		c.Next()
	}, RateLimit(limiter, log), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
