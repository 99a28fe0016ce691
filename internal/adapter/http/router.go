package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/adapter/http/handler"
	"github.com/iho/cashledger/internal/adapter/http/middleware"
	"github.com/iho/cashledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CashBookHandler  *handler.CashBookHandler
	PettyCashHandler *handler.PettyCashHandler
	PayrollHandler   *handler.PayrollHandler
	ReportHandler    *handler.ReportHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
	AllowedOrigins   []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.IdempotencyKeyHeader},
			ExposedHeaders: []string{"X-Idempotency-Replay", "X-Request-Id"},
		}))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Ops endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore).WithTTL(cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/cashbook", func(r chi.Router) {
			r.Post("/", cfg.CashBookHandler.Create)
			r.Get("/", cfg.CashBookHandler.List)
			r.Post("/opening-balance", cfg.CashBookHandler.OpenBalance)
			r.Put("/{id}", cfg.CashBookHandler.Update)
			r.Delete("/{id}", cfg.CashBookHandler.Delete)
		})

		r.Route("/pettycash", func(r chi.Router) {
			r.Post("/", cfg.PettyCashHandler.Create)
			r.Get("/", cfg.PettyCashHandler.GetByMonth)
			r.Put("/{id}", cfg.PettyCashHandler.Update)
			r.Delete("/{id}", cfg.PettyCashHandler.Delete)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/calculate", cfg.PayrollHandler.Calculate)
			r.Get("/", cfg.PayrollHandler.List)
			r.Get("/{id}", cfg.PayrollHandler.Get)
			r.Put("/{id}/pay", cfg.PayrollHandler.Pay)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/profit-loss", cfg.ReportHandler.ProfitLoss)
			r.Get("/position", cfg.ReportHandler.Position)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", cfg.LedgerHandler.List)
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
		})

		r.Get("/balances/{domain}", cfg.LedgerHandler.Balance)
	})

	return r
}
