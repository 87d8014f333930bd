package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"walletguru/internal/amqp"
	"walletguru/internal/core"
	"walletguru/internal/ledger/memory"
	"walletguru/internal/log"
	"walletguru/internal/recurrence"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func newTestStore() *Store {
	return NewStore(memory.New())
}

func rule(t *testing.T, f recurrence.Frequency, interval int, start time.Time, end *time.Time) recurrence.Rule {
	t.Helper()
	r, err := recurrence.NewRule(f, interval, start, nil, end)
	require.NoError(t, err)
	return r
}

func expenseTemplate(userID, id string, r recurrence.Rule) core.RecurringExpense {
	return core.RecurringExpense{
		Expense: core.Expense{
			ID:         id,
			UserID:     userID,
			Title:      "Rent",
			Amount:     core.Cents(90000),
			Date:       r.StartDate,
			CategoryID: "housing",
		},
		RecurrenceRule: r,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishMaterialized(_ context.Context, evt *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Events() []*amqp.TransactionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.TransactionEvent(nil), p.events...)
}
