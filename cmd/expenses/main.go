package main

import (
	"errors"
	"fmt"
	"os"

	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
)

func main() {
	// Load .env file if present (optional)
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	cli.ValidateConfig(logger, cfg)

	ctx, stop := cli.SignalContext()
	ctx = log.WithLogger(ctx, logger)

	res := cli.InitBackend(ctx, logger, cfg)
	app := cli.NewApp(res.Backend, os.Stdout, os.Stderr, logger)

	err := app.Run(ctx, os.Args[1:])
	code := cli.ExitCode(err)
	if err != nil && !errors.Is(err, cli.ErrUsage) {
		logger.ErrorContext(ctx, "Command failed",
			log.NewFields().WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	// os.Exit skips deferred calls
	if err := res.Cleanup(); err != nil {
		logger.Warn("Cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
	}
	stop()
	os.Exit(code)
}
