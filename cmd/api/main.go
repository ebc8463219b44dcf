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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wolfman30/chispart-landing/internal/api/router"
	"github.com/wolfman30/chispart-landing/internal/app/bootstrap"
	appconfig "github.com/wolfman30/chispart-landing/internal/config"
	httpmiddleware "github.com/wolfman30/chispart-landing/internal/http/middleware"
	"github.com/wolfman30/chispart-landing/internal/observability/metrics"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	logger.Info("starting chispart landing server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backing, err := connectBacking(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if backing.Redis != nil {
			_ = backing.Redis.Close()
		}
		if backing.Postgres != nil {
			backing.Postgres.Close()
		}
	}()

	store, err := bootstrap.BuildStore(cfg, backing, logger)
	if err != nil {
		return err
	}

	metricsHandler, landingMetrics := setupMetrics()
	app := bootstrap.BuildLanding(cfg, bootstrap.LandingDeps{
		Store:      store,
		Transcript: bootstrap.BuildTranscriptStore(backing.Redis),
		Metrics:    landingMetrics,
		Logger:     logger,
	})
	defer app.Registry.Close()
	go app.Registry.Run(ctx, cfg.SessionSweepEvery)

	visitors, err := httpmiddleware.NewVisitorTokens(cfg.VisitorTokenSecret, cfg.VisitorCookieTTL, cfg.IsProduction())
	if err != nil {
		return err
	}
	if cfg.VisitorTokenSecret == "" {
		logger.Warn("VISITOR_TOKEN_SECRET not set; visitor cookies will not survive a restart")
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(&router.Config{
			Logger:             logger,
			Landing:            app.Handler,
			Cycles:             bootstrap.BuildCycles(logger),
			Visitors:           visitors,
			Limiter:            limiter,
			MetricsHandler:     metricsHandler,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			Ready:              bootstrap.ReadyCheck(backing),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped", "sessions", app.Registry.Len())
	return nil
}

// connectBacking opens the connections the configured backend needs. Redis is
// also used for demo chat transcripts whenever it is reachable.
func connectBacking(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (bootstrap.Backing, error) {
	var backing bootstrap.Backing
	backing.Redis = bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	if cfg.StoreBackend == bootstrap.BackendPostgres {
		pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
		if err != nil {
			return backing, err
		}
		backing.Postgres = pool
	}
	return backing, nil
}

func setupMetrics() (http.Handler, *metrics.LandingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewLandingMetrics(reg)
}
