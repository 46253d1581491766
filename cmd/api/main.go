// Command api runs the HTTP API server for the Rhythm workflow catalog.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/rhythm-workflows/rhythm-go/internal/api"
	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/config"
	"github.com/rhythm-workflows/rhythm-go/internal/engine"
	"github.com/rhythm-workflows/rhythm-go/internal/observability"
	"github.com/rhythm-workflows/rhythm-go/internal/ratelimit"
	"github.com/rhythm-workflows/rhythm-go/internal/store"
	"github.com/rhythm-workflows/rhythm-go/internal/temporal/dispatcher"
)

const limiterIdle = 10 * time.Minute

func main() {
	if err := config.LoadDotEnv(os.Getenv("RHYTHM_ENV_FILE")); err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(ctx, "rhythm-api")
		if err != nil {
			logger.Error("otel init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Error("metrics init failed", "error", err)
		os.Exit(1)
	}

	backend, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("unable to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore(context.Background())

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    observability.NewTemporalSlogAdapter(logger),
	})
	if err != nil {
		logger.Error("unable to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	rhythm := engine.New(backend, dispatcher.New(c, cfg.TaskQueue, logger, metrics), logger)
	cat := catalog.NewService(backend, rhythm, catalog.Options{
		MaxPageSize:           cfg.MaxPageSize,
		ProjectionConcurrency: cfg.ProjectionConcurrency,
		ProjectionTimeout:     cfg.ProjectionTimeout,
		Logger:                logger,
		Metrics:               metrics,
	})

	verifier, err := api.NewVerifier(ctx, api.AuthConfig{
		IssuerURL:    cfg.OIDCIssuer,
		Audience:     cfg.OIDCAudience,
		PublicKeyPEM: cfg.JWTPublicKey,
		Issuer:       cfg.JWTIssuer,
	})
	if err != nil {
		logger.Error("unable to build token verifier", "error", err)
		os.Exit(1)
	}

	var limiter *ratelimit.KeyedLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.NewKeyedLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go sweep(ctx, limiter, logger)
	}

	srv := &http.Server{
		Addr: ":" + cfg.APIPort,
		Handler: api.New(cat, rhythm, api.Options{
			CORSOrigins: cfg.CORSOrigins,
			Verifier:    verifier,
			Limiter:     limiter,
			Logger:      logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	logger.Info("starting API server",
		"addr", srv.Addr,
		"store", cfg.Store,
		"auth_enabled", cfg.AuthEnabled(),
		"rate_limit_rps", cfg.RateLimitRPS,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("API server stopped")
}

func sweep(ctx context.Context, limiter *ratelimit.KeyedLimiter, logger *slog.Logger) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(limiterIdle); n > 0 {
				logger.Debug("rate limiter swept", "removed", n, "remaining", limiter.Len())
			}
		}
	}
}
