package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"walletguru/internal/amqp"
	"walletguru/internal/cache"
	"walletguru/internal/export"
	"walletguru/internal/ledger"
	"walletguru/internal/log"
	"walletguru/internal/services"
)

// SyncWorker mirrors materialized transactions to an export sink. Events
// carry identifiers only; the worker reads the transaction from the ledger.
type SyncWorker struct {
	store    *services.Store
	exporter export.Exporter
	names    *cache.LRU[string] // category names by kind, user and id
	logger   *log.Logger
}

const (
	categoryCacheSize = 512
	categoryCacheTTL  = 5 * time.Minute
)

func NewSyncWorker(store *services.Store, exporter export.Exporter, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		store:    store,
		exporter: exporter,
		names:    cache.NewLRU[string](categoryCacheSize, categoryCacheTTL),
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent exports the transaction an event refers to. Transactions that
// no longer exist are skipped; any other failure is returned so the message
// is redelivered.
func (w *SyncWorker) HandleEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldTransactionID, evt.TransactionID,
		log.FieldTemplateID, evt.TemplateID,
		"kind", evt.Kind)

	row, err := w.row(ctx, evt)
	if errors.Is(err, ledger.ErrNotFound) {
		w.logger.WarnContext(ctx, "Transaction no longer exists, skipping export",
			log.FieldTransactionID, evt.TransactionID,
			log.FieldUserID, evt.UserID)
		return nil
	}
	if err != nil {
		return err
	}

	ref, err := w.exporter.Export(ctx, row)
	if err != nil {
		return fmt.Errorf("export transaction %s: %w", evt.TransactionID, err)
	}

	w.logger.InfoContext(ctx, "Successfully exported transaction",
		log.FieldTransactionID, evt.TransactionID,
		log.FieldAmountCents, row.Amount.Cents,
		"ref", ref)
	return nil
}

func (w *SyncWorker) row(ctx context.Context, evt *amqp.TransactionEvent) (export.Row, error) {
	switch evt.Kind {
	case amqp.KindExpense:
		e, err := w.store.Expenses.Get(ctx, evt.UserID, evt.TransactionID)
		if err != nil {
			return export.Row{}, fmt.Errorf("get expense: %w", err)
		}
		name := w.categoryName(ctx, evt.Kind, e.UserID, e.CategoryID, func() (string, error) {
			c, err := w.store.ExpenseCategories.Get(ctx, e.UserID, e.CategoryID)
			return c.Name, err
		})
		return export.ExpenseRow(e, name), nil
	case amqp.KindIncome:
		i, err := w.store.Incomes.Get(ctx, evt.UserID, evt.TransactionID)
		if err != nil {
			return export.Row{}, fmt.Errorf("get income: %w", err)
		}
		name := w.categoryName(ctx, evt.Kind, i.UserID, i.CategoryID, func() (string, error) {
			c, err := w.store.IncomeCategories.Get(ctx, i.UserID, i.CategoryID)
			return c.Name, err
		})
		return export.IncomeRow(i, name), nil
	default:
		return export.Row{}, fmt.Errorf("unknown transaction kind %q", evt.Kind)
	}
}

// categoryName resolves a category name best-effort; rows are exported
// without one when the lookup fails.
func (w *SyncWorker) categoryName(ctx context.Context, kind, userID, categoryID string, load func() (string, error)) string {
	if categoryID == "" {
		return ""
	}
	name, err := w.names.GetOrLoad(kind+"|"+userID+"|"+categoryID, load)
	if err != nil {
		w.logger.DebugContext(ctx, "Category lookup failed",
			log.FieldCategoryID, categoryID,
			log.FieldError, err)
		return ""
	}
	return name
}
