package main

import (
	"context"
	"errors"
	"os"
	"time"

	"walletguru/internal/backend"
	"walletguru/internal/cli"
	"walletguru/internal/log"
	"walletguru/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, log.ComponentWorker)
	logger.Info("Starting sync-worker")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, log.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	b, err := factory.Create(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if b.Broker == nil {
		logger.Error("Broker unavailable", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		_ = b.Close()
		os.Exit(1)
	}

	exporter, err := factory.CreateExporter(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err)
		_ = b.Close()
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(b.Store, exporter, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := b.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Consuming transaction events",
		"queue", cfg.AMQPQueue,
		"sheets_enabled", cfg.SheetsEnabled())
	if err := b.Broker.Consume(ctx, syncWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Sync-worker shutdown complete")
}
