// Package cli provides process bootstrap helpers and the command dispatcher
// used by cmd/expenses.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expenses/internal/backend"
	"expenses/internal/config"
	"expenses/internal/log"
)

// Exit codes returned by the process.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// SetupLogger initializes structured logging on stderr at the given level and
// sets it as the default logger. Unknown levels fall back to warn; Validate
// reports them.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file if present.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// ValidateConfig validates the configuration or exits the process.
func ValidateConfig(logger *log.Logger, cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.NewFields().WithOperation(log.OpStartup).WithErrorType(log.ErrorTypeConfiguration).WithError(err).ToSlice()...)
		os.Exit(ExitError)
	}
}

// InitBackend opens the configured ledger. Storage errors at start-up are
// fatal, so failures exit the process.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err, "valid_backends", backend.GetBackendTypeStrings())
		os.Exit(ExitError)
	}
	logger.DebugContext(ctx, "Initializing backend", log.FieldBackend, bcfg.Type.String(), "events", cfg.EventsEnabled())
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			log.NewFields().WithOperation(log.OpStartup).WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
		os.Exit(ExitError)
	}
	return res
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ExitCode maps the result of App.Run to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	default:
		return ExitError
	}
}
