package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletguru/internal/amqp"
	"walletguru/internal/core"
	"walletguru/internal/export"
	exportmem "walletguru/internal/export/memory"
	"walletguru/internal/ledger/memory"
	"walletguru/internal/log"
	"walletguru/internal/services"
)

type failingExporter struct{}

func (failingExporter) Export(context.Context, export.Row) (string, error) {
	return "", errors.New("quota exceeded")
}

func setup(t *testing.T) (*services.Store, core.Expense) {
	t.Helper()
	ctx := context.Background()
	store := services.NewStore(memory.New())
	require.NoError(t, store.ExpenseCategories.Create(ctx, core.ExpenseCategory{
		ID: "housing", UserID: "alice", Name: "Housing", Colour: core.DefaultColour,
	}))
	e := core.Expense{
		ID: "tx-1", UserID: "alice", Title: "Rent", Amount: core.Cents(90000),
		Date: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), CategoryID: "housing", RecurringID: "rent",
	}
	require.NoError(t, store.Expenses.Create(ctx, e))
	return store, e
}

func quiet() *log.Logger { return log.New(log.Config{Output: io.Discard}) }

func TestHandleEventExportsExpense(t *testing.T) {
	store, e := setup(t)
	sink := exportmem.New()
	w := NewSyncWorker(store, sink, quiet())

	err := w.HandleEvent(context.Background(), amqp.NewMaterializedEvent(amqp.KindExpense, "alice", e.ID, "rent", e.Date))
	require.NoError(t, err)

	rows := sink.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "expense", rows[0].Kind)
	assert.Equal(t, "2025-02-28", rows[0].Date)
	assert.Equal(t, "Housing", rows[0].Category)
	assert.Equal(t, "rent", rows[0].TemplateID)
}

func TestHandleEventExportsIncome(t *testing.T) {
	store, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, store.Incomes.Create(ctx, core.Income{
		ID: "tx-2", UserID: "alice", Title: "Salary", Amount: core.Cents(250000),
		Date: time.Date(2025, 3, 27, 0, 0, 0, 0, time.UTC),
	}))
	sink := exportmem.New()

	err := NewSyncWorker(store, sink, quiet()).HandleEvent(ctx, amqp.NewMaterializedEvent(amqp.KindIncome, "alice", "tx-2", "salary", time.Now()))
	require.NoError(t, err)
	require.Len(t, sink.Rows(), 1)
	assert.Equal(t, "income", sink.Rows()[0].Kind)
	assert.Empty(t, sink.Rows()[0].Category)
}

func TestHandleEventSkipsMissingTransaction(t *testing.T) {
	store, _ := setup(t)
	sink := exportmem.New()

	err := NewSyncWorker(store, sink, quiet()).HandleEvent(context.Background(), amqp.NewMaterializedEvent(amqp.KindExpense, "alice", "gone", "rent", time.Now()))
	assert.NoError(t, err)
	assert.Empty(t, sink.Rows())
}

func TestHandleEventReturnsExportErrors(t *testing.T) {
	store, e := setup(t)

	err := NewSyncWorker(store, failingExporter{}, quiet()).HandleEvent(context.Background(), amqp.NewMaterializedEvent(amqp.KindExpense, "alice", e.ID, "rent", e.Date))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestHandleEventRejectsUnknownKind(t *testing.T) {
	store, _ := setup(t)
	evt := &amqp.TransactionEvent{Kind: "transfer", UserID: "alice", TransactionID: "x"}

	err := NewSyncWorker(store, exportmem.New(), quiet()).HandleEvent(context.Background(), evt)
	assert.ErrorContains(t, err, "unknown transaction kind")
}

func TestHandleEventCachesCategoryNames(t *testing.T) {
	store, e := setup(t)
	ctx := context.Background()
	sink := exportmem.New()
	w := NewSyncWorker(store, sink, quiet())

	require.NoError(t, w.HandleEvent(ctx, amqp.NewMaterializedEvent(amqp.KindExpense, "alice", e.ID, "rent", e.Date)))
	require.NoError(t, store.ExpenseCategories.Delete(ctx, "alice", "housing"))

	second := e
	second.ID = "tx-3"
	require.NoError(t, store.Expenses.Create(ctx, second))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewMaterializedEvent(amqp.KindExpense, "alice", second.ID, "rent", e.Date)))

	rows := sink.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Housing", rows[1].Category)
}
