package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"walletguru/internal/amqp"
	"walletguru/internal/claim"
	"walletguru/internal/core"
	"walletguru/internal/ledger"
	"walletguru/internal/log"
	"walletguru/internal/recurrence"
)

const DefaultClaimTTL = 24 * time.Hour

// ProcessResult summarizes one processing pass.
type ProcessResult struct {
	Checked       int `json:"checked"`
	Materialized  int `json:"materialized"`
	Retired       int `json:"retired"`
	Skipped       int `json:"skipped"`
	BudgetsReset  int `json:"budgetsReset"`
	PublishFailed int `json:"publishFailed"`
}

func (r *ProcessResult) add(o ProcessResult) {
	r.Checked += o.Checked
	r.Materialized += o.Materialized
	r.Retired += o.Retired
	r.Skipped += o.Skipped
	r.BudgetsReset += o.BudgetsReset
	r.PublishFailed += o.PublishFailed
}

// RecurringProcessor materializes the transactions of due recurring
// templates. Every elapsed occurrence becomes one transaction dated at the
// occurrence; occurrence IDs are derived from the template and date, and each
// occurrence is claimed before it is written, so concurrent or repeated runs
// create it at most once.
type RecurringProcessor struct {
	store      *Store
	categories *ExpenseCategoryService
	claims     claim.Claimer
	publisher  Publisher
	claimTTL   time.Duration
	logger     *log.Logger
}

// NewRecurringProcessor wires the processor. publisher may be nil, in which
// case no events are announced.
func NewRecurringProcessor(store *Store, categories *ExpenseCategoryService, claims claim.Claimer, publisher Publisher, claimTTL time.Duration, logger *log.Logger) *RecurringProcessor {
	if claims == nil {
		claims = claim.NewMemory()
	}
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &RecurringProcessor{
		store:      store,
		categories: categories,
		claims:     claims,
		publisher:  publisher,
		claimTTL:   claimTTL,
		logger:     logger.WithComponent(log.ComponentRecurring),
	}
}

// ProcessDue handles the recurring expenses, recurring incomes and budget
// cycles of every user concurrently.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (ProcessResult, error) {
	var (
		mu    sync.Mutex
		total ProcessResult
	)
	merge := func(r ProcessResult) {
		mu.Lock()
		total.add(r)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		templates, err := p.store.RecurringExpenses.List(gctx)
		if err != nil {
			return fmt.Errorf("list recurring expenses: %w", err)
		}
		merge(p.processExpenses(gctx, templates, now))
		return nil
	})
	g.Go(func() error {
		templates, err := p.store.RecurringIncomes.List(gctx)
		if err != nil {
			return fmt.Errorf("list recurring incomes: %w", err)
		}
		merge(p.processIncomes(gctx, templates, now))
		return nil
	})
	if p.categories != nil {
		g.Go(func() error {
			n, err := p.categories.ResetBudgetCycles(gctx, now)
			merge(ProcessResult{BudgetsReset: n})
			return err
		})
	}

	err := g.Wait()
	p.logger.InfoContext(ctx, "Recurring processing complete",
		"checked", total.Checked,
		"materialized", total.Materialized,
		"retired", total.Retired,
		"skipped", total.Skipped,
		"budgets_reset", total.BudgetsReset,
		"processing_date", recurrence.Truncate(now).Format(time.DateOnly))
	return total, err
}

// ProcessUserExpenses handles the recurring expenses of one user.
func (p *RecurringProcessor) ProcessUserExpenses(ctx context.Context, userID string, now time.Time) (ProcessResult, error) {
	templates, err := p.store.RecurringExpenses.List(ctx, userID)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("list recurring expenses: %w", err)
	}
	return p.processExpenses(ctx, templates, now), nil
}

// ProcessUserIncomes handles the recurring incomes of one user.
func (p *RecurringProcessor) ProcessUserIncomes(ctx context.Context, userID string, now time.Time) (ProcessResult, error) {
	templates, err := p.store.RecurringIncomes.List(ctx, userID)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("list recurring incomes: %w", err)
	}
	return p.processIncomes(ctx, templates, now), nil
}

func (p *RecurringProcessor) processExpenses(ctx context.Context, templates []core.RecurringExpense, now time.Time) ProcessResult {
	var res ProcessResult
	for _, t := range templates {
		if ctx.Err() != nil {
			break
		}
		if !t.Active() || !t.RecurrenceRule.ShouldTrigger(now) {
			continue
		}
		res.Checked++
		advanced, occurrences, exhausted, ok := p.advance(ctx, t.ID, t.RecurrenceRule, now)
		if !ok {
			res.Skipped++
			continue
		}
		created, failedPublish, err := p.materialize(ctx, amqp.KindExpense, t.ID, t.UserID, occurrences,
			func(ctx context.Context, on time.Time) error {
				return p.store.Expenses.Create(ctx, t.Materialize(on))
			})
		res.Materialized += created
		res.PublishFailed += failedPublish
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to materialize recurring expense",
				log.FieldTemplateID, t.ID,
				log.FieldError, err)
			res.Skipped++
			continue
		}

		t.RecurrenceRule = advanced
		if exhausted {
			ended := recurrence.Truncate(now)
			t.EndedAt = &ended
			res.Retired++
		}
		if err := p.store.RecurringExpenses.Update(ctx, t); err != nil {
			p.logger.ErrorContext(ctx, "Failed to persist recurring expense",
				log.FieldTemplateID, t.ID,
				log.FieldError, err)
			continue
		}
		p.logProcessed(ctx, amqp.KindExpense, t.ID, t.RecurrenceRule, len(occurrences), exhausted, t.Amount)
	}
	return res
}

func (p *RecurringProcessor) processIncomes(ctx context.Context, templates []core.RecurringIncome, now time.Time) ProcessResult {
	var res ProcessResult
	for _, t := range templates {
		if ctx.Err() != nil {
			break
		}
		if !t.Active() || !t.RecurrenceRule.ShouldTrigger(now) {
			continue
		}
		res.Checked++
		advanced, occurrences, exhausted, ok := p.advance(ctx, t.ID, t.RecurrenceRule, now)
		if !ok {
			res.Skipped++
			continue
		}
		created, failedPublish, err := p.materialize(ctx, amqp.KindIncome, t.ID, t.UserID, occurrences,
			func(ctx context.Context, on time.Time) error {
				return p.store.Incomes.Create(ctx, t.Materialize(on))
			})
		res.Materialized += created
		res.PublishFailed += failedPublish
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to materialize recurring income",
				log.FieldTemplateID, t.ID,
				log.FieldError, err)
			res.Skipped++
			continue
		}

		t.RecurrenceRule = advanced
		if exhausted {
			ended := recurrence.Truncate(now)
			t.EndedAt = &ended
			res.Retired++
		}
		if err := p.store.RecurringIncomes.Update(ctx, t); err != nil {
			p.logger.ErrorContext(ctx, "Failed to persist recurring income",
				log.FieldTemplateID, t.ID,
				log.FieldError, err)
			continue
		}
		p.logProcessed(ctx, amqp.KindIncome, t.ID, t.RecurrenceRule, len(occurrences), exhausted, t.Amount)
	}
	return res
}

// advance runs the rule's catch-up loop. ok is false when the rule cannot be
// advanced at all; exhausted reports that the schedule has ended, in which
// case the returned occurrences still have to be materialized.
func (p *RecurringProcessor) advance(ctx context.Context, templateID string, rule recurrence.Rule, now time.Time) (recurrence.Rule, []time.Time, bool, bool) {
	advanced, occurrences, err := rule.Advance(now)
	switch {
	case err == nil:
		return advanced, occurrences, false, true
	case errors.Is(err, recurrence.ErrScheduleExhausted):
		return advanced, occurrences, true, true
	default:
		p.logger.WarnContext(ctx, "Skipping template with invalid recurrence rule",
			log.FieldTemplateID, templateID,
			log.FieldFrequency, rule.Frequency,
			log.FieldError, err)
		return rule, nil, false, false
	}
}

// materialize creates one transaction per occurrence. An occurrence claimed
// by another worker, or already present in the ledger, is not created again.
// On a write failure the claim is released so a later run can retry.
func (p *RecurringProcessor) materialize(ctx context.Context, kind, templateID, userID string, occurrences []time.Time, create func(context.Context, time.Time) error) (created, publishFailed int, err error) {
	for _, on := range occurrences {
		id := core.OccurrenceID(templateID, on)
		key := "occurrence:" + id

		ok, err := p.claims.Claim(ctx, key, p.claimTTL)
		if err != nil {
			return created, publishFailed, fmt.Errorf("claim occurrence %s: %w", id, err)
		}
		if !ok {
			p.logger.DebugContext(ctx, "Occurrence claimed elsewhere",
				log.FieldTemplateID, templateID,
				log.FieldTransactionID, id)
			continue
		}

		if err := create(ctx, on); err != nil {
			if errors.Is(err, ledger.ErrExists) {
				continue
			}
			if relErr := p.claims.Release(ctx, key); relErr != nil {
				p.logger.WarnContext(ctx, "Failed to release occurrence claim",
					log.FieldTransactionID, id,
					log.FieldError, relErr)
			}
			return created, publishFailed, fmt.Errorf("create occurrence %s: %w", id, err)
		}
		created++

		if err := p.publish(ctx, amqp.NewMaterializedEvent(kind, userID, id, templateID, on)); err != nil {
			publishFailed++
			p.logger.ErrorContext(ctx, "Failed to publish materialized transaction",
				log.FieldTransactionID, id,
				log.FieldError, err)
		}
	}
	return created, publishFailed, nil
}

func (p *RecurringProcessor) publish(ctx context.Context, evt *amqp.TransactionEvent) error {
	if p.publisher == nil {
		return nil
	}
	return p.publisher.PublishMaterialized(ctx, evt)
}

func (p *RecurringProcessor) logProcessed(ctx context.Context, kind, templateID string, rule recurrence.Rule, occurrences int, exhausted bool, amount core.Money) {
	p.logger.InfoContext(ctx, "Processed recurring "+kind,
		log.FieldTemplateID, templateID,
		log.FieldFrequency, rule.Frequency,
		log.FieldOccurrences, occurrences,
		log.FieldNextTrigger, rule.NextTriggerDate.Format(time.DateOnly),
		log.FieldAmountCents, amount.Cents,
		"retired", exhausted)
}
