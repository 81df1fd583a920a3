package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/entityledger/internal/adapter/http/handler"
	"github.com/iho/entityledger/internal/adapter/http/middleware"
	"github.com/iho/entityledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LedgerHandler *handler.LedgerHandler
	EntityHandler *handler.EntityHandler
	HealthHandler *handler.HealthHandler
	Logger        zerolog.Logger

	// IdempotencyStore enables Idempotency-Key handling on ingest when set.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	// IngestLimiter throttles ingest per client when set.
	IngestLimiter *middleware.RateLimiter

	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics)

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/ledger", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.IngestLimiter != nil {
					r.Use(cfg.IngestLimiter.Limit)
				}
				if cfg.IdempotencyStore != nil {
					r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
				}
				r.Post("/ingest", cfg.LedgerHandler.Ingest)
			})
			r.Post("/validate", cfg.LedgerHandler.Validate)
			r.Get("/consistency", cfg.LedgerHandler.Consistency)
		})

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", cfg.EntityHandler.List)
			r.Get("/{name}/balance", cfg.EntityHandler.GetBalance)
			r.Get("/{name}/entries", cfg.EntityHandler.ListEntries)
		})
	})

	return r
}
