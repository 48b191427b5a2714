// Package cli provides common CLI initialization utilities shared by
// cmd/calendar and cmd/calendar-worker.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/AppleZ1995/CalendarAssistant/internal/config"
	applog "github.com/AppleZ1995/CalendarAssistant/internal/log"
	"github.com/AppleZ1995/CalendarAssistant/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error; production sets the environment directly.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	logConfig := applog.DefaultConfig()
	logConfig.Component = component
	if strings.EqualFold(cfg.LogFormat, "json") {
		logConfig.Format = "json"
	}

	level, levelErr := applog.ParseLevel(cfg.LogLevel)
	if levelErr == nil {
		logConfig.Level = level
	}

	logger := applog.New(logConfig)
	applog.SetDefault(logger)

	if levelErr != nil {
		logger.Warn("Unknown log level, using info", "log_level", cfg.LogLevel)
	}
	return logger
}

// ValidateOrExit logs a configuration error and exits the process.
func ValidateOrExit(logger *applog.Logger, err error) {
	if err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
}

// OpenStore opens the SQLite store, applying pending migrations.
// Returns the store or exits the process on failure.
func OpenStore(logger *applog.Logger, dbPath string) *storage.Store {
	store, err := storage.Open(dbPath)
	if err != nil {
		logger.Error("Failed to open SQLite store",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeDatabase,
			"path", dbPath)
		os.Exit(1)
	}
	logger.Info("SQLite store ready", "path", store.Path())
	return store
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Run executes serve until it returns or ctx is cancelled, then calls
// shutdown with a fresh context bounded by timeout. A cancelled ctx is a
// clean stop, not an error.
func Run(ctx context.Context, logger *applog.Logger, timeout time.Duration, serve, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		logger.Info("Serving", applog.FieldOperation, applog.OpStartup)
		err := serve(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down",
			applog.FieldOperation, applog.OpShutdown,
			"timeout", timeout.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if shutdown == nil {
			return nil
		}
		if err := shutdown(shutdownCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				logger.Warn("Shutdown timeout reached", applog.FieldOperation, applog.OpShutdown)
			}
			return err
		}
		return nil
	})

	return g.Wait()
}
