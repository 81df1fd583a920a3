package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/entityledger/internal/adapter/http"
	"github.com/iho/entityledger/internal/adapter/http/handler"
	"github.com/iho/entityledger/internal/adapter/http/middleware"
	"github.com/iho/entityledger/internal/adapter/idgen"
	redisRepo "github.com/iho/entityledger/internal/adapter/repository/redis"
	"github.com/iho/entityledger/internal/infrastructure/config"
	"github.com/iho/entityledger/internal/infrastructure/logger"
	"github.com/iho/entityledger/internal/infrastructure/metrics"
	"github.com/iho/entityledger/internal/infrastructure/redis"
	"github.com/iho/entityledger/internal/usecase"
)

const limiterIdleTimeout = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var redisClient *goredis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL, cfg.RedisConnectTimeout)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		redisClient = client
		log.Info().Msg("connected to redis")
	} else {
		log.Info().Msg("REDIS_URL not set, idempotent ingest disabled")
	}

	router, limiter := buildRouter(cfg, log, prometheus.DefaultRegisterer, prometheus.DefaultGatherer, redisClient)

	if limiter != nil {
		go cleanupLimiters(ctx, limiter, log)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// buildRouter wires the use case, handlers and middleware. redisClient may be nil.
func buildRouter(
	cfg *config.Config,
	log zerolog.Logger,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
	redisClient *goredis.Client,
) (http.Handler, *middleware.RateLimiter) {
	ledgerUC := usecase.NewLedgerUseCase(usecase.Config{
		IDGenerator:  idgen.NewULIDGenerator(),
		Metrics:      metrics.New(reg),
		Logger:       log,
		MaxBatchSize: cfg.MaxBatchSize,
	})

	routerCfg := httpAdapter.RouterConfig{
		LedgerHandler:  handler.NewLedgerHandler(ledgerUC),
		EntityHandler:  handler.NewEntityHandler(ledgerUC),
		HealthHandler:  handler.NewHealthHandler(redisClient),
		Logger:         log,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Gatherer:       gatherer,
	}
	if redisClient != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}
	if cfg.IngestRateLimit > 0 {
		routerCfg.IngestLimiter = middleware.NewRateLimiter(cfg.IngestRateLimit, cfg.IngestRateBurst)
	}

	return httpAdapter.NewRouter(routerCfg), routerCfg.IngestLimiter
}

func cleanupLimiters(ctx context.Context, limiter *middleware.RateLimiter, log zerolog.Logger) {
	ticker := time.NewTicker(limiterIdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := limiter.CleanupLimiters(limiterIdleTimeout); removed > 0 {
				log.Debug().Int("removed", removed).Msg("cleaned up idle rate limiters")
			}
		}
	}
}
