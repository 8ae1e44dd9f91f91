package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"secure-payment-gateway/config"
	httpHandler "secure-payment-gateway/internal/adapter/http/handler"
	pgStorage "secure-payment-gateway/internal/adapter/storage/postgres"
	redisStorage "secure-payment-gateway/internal/adapter/storage/redis"
	"secure-payment-gateway/internal/core/ports"
	"secure-payment-gateway/internal/service"
	"secure-payment-gateway/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("starting payment gateway core")

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgresql")
	}
	defer pool.Close()
	log.Info().Msg("postgresql connected")

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()
	log.Info().Msg("redis connected")

	// Cryptographic primitives
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	credSvc := service.NewApiKeyCredentialService(hashSvc)

	// Repositories
	businessRepo := pgStorage.NewBusinessRepo(pool, encSvc)
	apiKeyRepo := pgStorage.NewApiKeyRepo(pool)
	accountRepo := pgStorage.NewAccountRepo(pool)
	transactionRepo := pgStorage.NewTransactionRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	outboxRepo := pgStorage.NewWebhookOutboxRepo(pool)
	rateLimitRepo := pgStorage.NewRateLimitRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Redis fast paths
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	rateLimitCache := redisStorage.NewRateLimitStore(rdb)

	// Core services
	businessSvc := service.NewBusinessService(businessRepo, apiKeyRepo, hashSvc, credSvc, tokenSvc)
	accountSvc := service.NewAccountService(accountRepo)
	engine := service.NewLedgerEngine(transactionRepo, accountRepo, ledgerRepo, outboxRepo, idempotencyCache, transactor, log)
	reportingSvc := service.NewReportingService(transactionRepo, accountRepo)
	webhookDeliverySvc := service.NewWebhookDeliveryService(outboxRepo)
	rateLimiter := service.NewWindowRateLimiter(rateLimitCache, rateLimitRepo, log)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Background delivery worker: drains the outbox independently of the
	// synchronous request path.
	worker := service.NewDeliveryWorker(outboxRepo, businessRepo, sigSvc, &http.Client{Timeout: 10 * time.Second}, log)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	go worker.Run(workerCtx)
	defer stopWorker()

	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("openapi spec loaded for swagger ui at /swagger")
	} else {
		log.Warn().Err(err).Msg("openapi spec not found, swagger ui will be unavailable")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		BusinessSvc:    businessSvc,
		AccountSvc:     accountSvc,
		Engine:         engine,
		ReportingSvc:   reportingSvc,
		WebhookSvc:     webhookDeliverySvc,
		ApiKeyRepo:     apiKeyRepo,
		CredSvc:        credSvc,
		TokenSvc:       tokenSvc,
		RateLimiter:    rateLimiter,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
