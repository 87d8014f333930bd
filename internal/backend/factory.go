package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"walletguru/internal/amqp"
	"walletguru/internal/claim"
	"walletguru/internal/config"
	"walletguru/internal/export"
	exportmem "walletguru/internal/export/memory"
	"walletguru/internal/export/sheets"
	"walletguru/internal/ledger"
	"walletguru/internal/ledger/memory"
	"walletguru/internal/ledger/sqlite"
	"walletguru/internal/log"
	"walletguru/internal/services"
)

const pingTimeout = 5 * time.Second

// Factory opens backends from the application configuration.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the ledger, the claim store and, when configured, the broker.
// On error every resource opened so far is closed.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	b := &Backend{}

	state, err := f.openLedger(ctx, cfg, b)
	if err != nil {
		return nil, errors.Join(err, b.Close())
	}
	b.State = state
	b.Store = services.NewStore(state)

	claims, err := f.openClaims(ctx, cfg, b)
	if err != nil {
		return nil, errors.Join(err, b.Close())
	}
	b.Claims = claims

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			b.Broker = client
			b.closers = append(b.closers, client.Close)
		}
	}

	f.logger.Info("Backend ready",
		"ledger", cfg.DataBackend,
		"redis_claims", cfg.RedisURL != "",
		"amqp_enabled", b.Broker != nil)
	return b, nil
}

func (f *Factory) openLedger(ctx context.Context, cfg *config.Config, b *Backend) (ledger.State, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		f.logger.Info("Using in-memory ledger; data is lost on restart")
		return memory.New(), nil
	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		b.checks = append(b.checks, Check{Name: "ledger", Ping: store.Ping})
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %q", cfg.DataBackend)
	}
}

func (f *Factory) openClaims(ctx context.Context, cfg *config.Config, b *Backend) (claim.Claimer, error) {
	if cfg.RedisURL == "" {
		return claim.NewMemory(), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	b.closers = append(b.closers, rdb.Close)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	b.checks = append(b.checks, Check{Name: "redis", Ping: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}})
	return claim.NewRedis(rdb, owner()), nil
}

// CreateExporter returns the Google Sheets exporter when a spreadsheet is
// configured and an in-memory one otherwise.
func (f *Factory) CreateExporter(ctx context.Context, cfg *config.Config) (export.Exporter, error) {
	if !cfg.SheetsEnabled() {
		f.logger.Info("No spreadsheet configured, keeping exported rows in memory")
		return exportmem.New(), nil
	}
	client, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
		ExpensesSheet:   cfg.GoogleExpensesSheet,
		IncomesSheet:    cfg.GoogleIncomesSheet,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize google sheets exporter: %w", err)
	}
	return client, nil
}

// Close releases resources in reverse opening order.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// owner identifies this process in claim values.
func owner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}
