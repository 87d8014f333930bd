package main

import (
	"context"
	"os"
	"time"

	"walletguru/internal/backend"
	"walletguru/internal/cli"
	"walletguru/internal/config"
	"walletguru/internal/log"
	"walletguru/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, log.ComponentRecurring)
	logger.Info("Starting recurring-worker")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, log.ComponentRecurring)

	b, err := backend.NewFactory(logger).Create(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Recurring worker is running on the in-memory ledger; templates created by other processes are invisible")
	}

	categories := services.NewExpenseCategoryService(b.Store, logger)
	processor := services.NewRecurringProcessor(b.Store, categories, b.Claims, b.Publisher(), cfg.ClaimTTL, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := b.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend,
		"redis_claims", cfg.RedisURL != "")

	run := func(now time.Time) {
		if _, err := processor.ProcessDue(ctx, now); err != nil && ctx.Err() == nil {
			logger.Error("Recurring processing failed", log.FieldError, err)
		}
	}

	logger.Info("Running initial recurring processing")
	run(time.Now())

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cli.WaitForShutdown(ctx, done)
			logger.Info("Recurring-worker shutdown complete")
			return
		case now := <-ticker.C:
			run(now)
		}
	}
}
