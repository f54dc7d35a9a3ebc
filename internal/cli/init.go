// Package cli provides initialization shared by cmd/finbook and
// cmd/finbook-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finbook/internal/config"
	applog "finbook/internal/log"
)

// SetupLogger builds the application logger for component at the level
// named by LOG_LEVEL and installs it as the slog default.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: component,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// It exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
	}()
	return ctx, stop
}

// Server is the part of an HTTP server ServeHTTP drives.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// ServeHTTP runs srv inside g until ctx is done, then shuts it down within
// timeout. addr is only used for logging.
func ServeHTTP(ctx context.Context, g *errgroup.Group, addr string, srv Server, timeout time.Duration, logger *applog.Logger) {
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown incomplete", "addr", addr, applog.FieldError, err)
			return fmt.Errorf("shutdown %s: %w", addr, err)
		}
		logger.Info("HTTP server stopped", "addr", addr)
		return nil
	})
}
