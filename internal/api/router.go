package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/xaalispay/xaalis/internal/api/handler"
	"github.com/xaalispay/xaalis/internal/api/middleware"
	"github.com/xaalispay/xaalis/internal/api/spec"
	"github.com/xaalispay/xaalis/internal/config"
	"github.com/xaalispay/xaalis/internal/idempotency"
	"github.com/xaalispay/xaalis/internal/service"
	"go.uber.org/zap"
)

type Router struct {
	cfg        *config.Config
	logger     *zap.Logger
	db         *pgxpool.Pool
	redis      redis.Cmdable
	idemStore  *idempotency.Store
	ledgerSvc  *service.LedgerService
	historySvc *service.HistoryService
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, redis redis.Cmdable, idemStore *idempotency.Store, ledgerSvc *service.LedgerService, historySvc *service.HistoryService) *Router {
	return &Router{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		redis:      redis,
		idemStore:  idemStore,
		ledgerSvc:  ledgerSvc,
		historySvc: historySvc,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	accountHandler := handler.NewAccountHandler(api.ledgerSvc)
	transferHandler := handler.NewTransferHandler(api.ledgerSvc)
	paymentHandler := handler.NewPaymentHandler(api.ledgerSvc)
	historyHandler := handler.NewHistoryHandler(api.historySvc)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Get("/healthz", healthHandler.Live)
		r.Get("/readyz", healthHandler.Ready)
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/openapi.yaml", spec.OpenAPIHandler())
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

		r.Post("/v1/accounts", accountHandler.Open)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/accounts/{accountID}/balance", accountHandler.Balance)
		r.Get("/v1/accounts/{accountID}/transactions", historyHandler.List)
		r.Get("/v1/accounts/{accountID}/transactions/{reference}", historyHandler.Detail)

		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).Post("/v1/transfers", transferHandler.Create)
		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).Post("/v1/payments", paymentHandler.Create)
	})

	return r
}
