package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xaalispay/xaalis/internal/api"
	"github.com/xaalispay/xaalis/internal/api/middleware"
	"github.com/xaalispay/xaalis/internal/config"
	"github.com/xaalispay/xaalis/internal/db"
	"github.com/xaalispay/xaalis/internal/idempotency"
	"github.com/xaalispay/xaalis/internal/observability"
	"github.com/xaalispay/xaalis/internal/repository"
	"github.com/xaalispay/xaalis/internal/service"
	"github.com/xaalispay/xaalis/internal/worker"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and verification worker, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	idemStore := idempotency.NewStore(redisClient, cfg.IdempotencyTTL)
	store := repository.NewStore(pool).WithRetryPolicy(cfg.TxMaxAttempts, cfg.TxRetryBackoff)

	ledgerSvc := service.NewLedgerService(store, service.Policy{
		Currency:            cfg.Currency,
		CountryCode:         cfg.CountryCode,
		TransferFeeRate:     cfg.TransferFeeRate,
		MinTransfer:         cfg.MinTransfer,
		MaxTransfer:         cfg.MaxTransfer,
		MinPayment:          cfg.MinPayment,
		AllowOpeningBalance: cfg.AllowOpeningBalance,
	})
	historySvc := service.NewHistoryService(store, cfg.HistoryPageSize)
	verificationSvc := service.NewVerificationService(store)

	verificationWorker := worker.NewVerificationWorker(verificationSvc).WithInterval(cfg.VerificationInterval)
	stopWorker := verificationWorker.Run(ctx)
	logger.Info("verification worker started", zap.Duration("interval", cfg.VerificationInterval))

	router := api.NewRouter(cfg, logger, pool, redisClient, idemStore, ledgerSvc, historySvc)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping verification worker")
	stopWorker()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
