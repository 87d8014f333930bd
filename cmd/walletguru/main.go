package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"walletguru/internal/auth"
	"walletguru/internal/backend"
	"walletguru/internal/cli"
	apphttp "walletguru/internal/http"
	"walletguru/internal/log"
	"walletguru/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(nil, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, log.ComponentApp)

	if err := cli.EnsureJWTSecret(cfg, logger); err != nil {
		logger.Error("Invalid auth configuration", log.FieldError, err)
		os.Exit(1)
	}

	b, err := backend.NewFactory(logger).Create(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	store := b.Store
	categories := services.NewExpenseCategoryService(store, logger)
	processor := services.NewRecurringProcessor(store, categories, b.Claims, b.Publisher(), cfg.ClaimTTL, logger)

	checks := make([]apphttp.Check, 0, len(b.Checks()))
	for _, c := range b.Checks() {
		checks = append(checks, apphttp.Check{Name: c.Name, Ping: c.Ping})
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Production:      cfg.IsProduction(),
		Logger:          logger,
	}, apphttp.Deps{
		Expenses:          services.NewExpenseService(store),
		Incomes:           services.NewIncomeService(store),
		ExpenseCategories: categories,
		IncomeCategories:  services.NewIncomeCategoryService(store),
		Goals:             services.NewGoalService(store),
		RecurringExpenses: services.NewRecurringExpenseService(store, processor, logger),
		RecurringIncomes:  services.NewRecurringIncomeService(store, processor, logger),
		Users:             services.NewUserService(store),
		Analytics:         services.NewAnalyticsService(store),
		Processor:         processor,
		Tokens:            auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Checks:            checks,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := b.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting walletguru server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"env", cfg.AppEnv)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
