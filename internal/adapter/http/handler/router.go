package handler

import (
	"secure-payment-gateway/internal/adapter/http/middleware"
	"secure-payment-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	BusinessSvc    ports.BusinessService
	AccountSvc     ports.AccountService
	Engine         ports.TransactionEngine
	ReportingSvc   ports.ReportingService
	WebhookSvc     ports.WebhookDeliveryService
	ApiKeyRepo     ports.ApiKeyRepository
	CredSvc        ports.CredentialService
	TokenSvc       ports.TokenService
	RateLimiter    ports.RateLimiter // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/ready", Ready)

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	apiKeyAuth := middleware.APIKeyAuth(deps.ApiKeyRepo, deps.CredSvc, deps.Logger)
	rateLimit := func(c *gin.Context) { c.Next() }
	if deps.RateLimiter != nil {
		rateLimit = middleware.RateLimit(deps.RateLimiter, deps.Logger)
	}
	adminAuth := middleware.AdminSessionAuth(deps.TokenSvc)

	v1 := r.Group("/v1")

	businessHandler := NewBusinessHandler(deps.BusinessSvc)
	v1.POST("/businesses", businessHandler.Register)

	admin := v1.Group("/admin", adminAuth)
	{
		admin.GET("/me", businessHandler.Me)
		admin.PUT("/webhook", businessHandler.UpdateWebhook)
	}
	v1.POST("/admin/login", businessHandler.Login)

	accountHandler := NewAccountHandler(deps.AccountSvc)
	transactionHandler := NewTransactionHandler(deps.Engine, deps.ReportingSvc)
	webhookHandler := NewWebhookHandler(deps.WebhookSvc)

	authed := v1.Group("", apiKeyAuth, rateLimit)
	{
		authed.POST("/accounts", accountHandler.Create)
		authed.GET("/accounts/:id", accountHandler.Get)
		authed.GET("/accounts/:id/transactions", transactionHandler.ListByAccount)

		authed.POST("/transactions", transactionHandler.Create)
		authed.GET("/transactions", transactionHandler.List)
		authed.GET("/transactions/:id", transactionHandler.Get)

		authed.GET("/webhooks/deliveries", webhookHandler.List)
		authed.GET("/webhooks/deliveries/:id", webhookHandler.Get)
		authed.POST("/webhooks/deliveries/:id/retry", webhookHandler.Retry)
	}

	return r
}
