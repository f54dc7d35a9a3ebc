package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finbook/internal/backend"
	"finbook/internal/cli"
	apphttp "finbook/internal/http"
	applog "finbook/internal/log"
	"finbook/internal/metrics"
	"finbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	collector := metrics.New()
	transactions := services.NewTransactionService(result.Backend.Transactions, result.Backend.Publisher, collector, logger)
	expenses := services.NewExpenseService(result.Backend.Expenses, result.Backend.Publisher, collector, logger)

	srv := apphttp.NewServer(cfg.Addr(), transactions, expenses, logger,
		apphttp.WithMetrics(collector),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithTrustedProxies(cfg.TrustedProxies),
		apphttp.WithReadinessCheck("database", result.Backend.Ping))
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	logger.Info("Starting finbook",
		"addr", cfg.Addr(),
		applog.FieldBackend, cfg.DataBackend,
		"publishing", result.Backend.Publisher != nil)

	g, gctx := errgroup.WithContext(ctx)
	cli.ServeHTTP(gctx, g, cfg.Addr(), srv, 30*time.Second, logger)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
