package services

import (
	"context"
	"time"

	"walletguru/internal/core"
	"walletguru/internal/log"
	"walletguru/internal/recurrence"
)

// RecurringExpenseService manages recurring expense templates. Reads
// materialize the user's due occurrences first, so callers always see the
// current trigger dates.
type RecurringExpenseService struct {
	records[core.RecurringExpense]
	processor *RecurringProcessor
	logger    *log.Logger
	now       func() time.Time
}

func NewRecurringExpenseService(store *Store, processor *RecurringProcessor, logger *log.Logger) *RecurringExpenseService {
	return &RecurringExpenseService{
		records: records[core.RecurringExpense]{
			coll: store.RecurringExpenses,
			assign: func(t core.RecurringExpense, userID, id string) core.RecurringExpense {
				t.UserID, t.ID = userID, id
				t.RecurringID = ""
				if t.Date.IsZero() {
					t.Date = t.RecurrenceRule.StartDate
				}
				t.Date = recurrence.Truncate(t.Date)
				t.EndedAt = nil
				return t
			},
			keep: func(stored, t core.RecurringExpense) core.RecurringExpense {
				t.EndedAt = stored.EndedAt
				return t
			},
		},
		processor: processor,
		logger:    logger.WithComponent(log.ComponentRecurring),
		now:       time.Now,
	}
}

func (s *RecurringExpenseService) processDue(ctx context.Context, userID string) {
	if s.processor == nil {
		return
	}
	if _, err := s.processor.ProcessUserExpenses(ctx, userID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "Failed to process due recurring expenses",
			log.FieldUserID, userID,
			log.FieldError, err)
	}
}

func (s *RecurringExpenseService) Get(ctx context.Context, userID, id string) (core.RecurringExpense, error) {
	s.processDue(ctx, userID)
	return s.records.Get(ctx, userID, id)
}

func (s *RecurringExpenseService) List(ctx context.Context, userID string) ([]core.RecurringExpense, error) {
	s.processDue(ctx, userID)
	return s.records.List(ctx, userID)
}

// RRule renders the template's schedule as an RFC 5545 recurrence rule.
func (s *RecurringExpenseService) RRule(ctx context.Context, userID, id string) (string, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return t.RecurrenceRule.RRuleString()
}

// RecurringIncomeService manages recurring income templates.
type RecurringIncomeService struct {
	records[core.RecurringIncome]
	processor *RecurringProcessor
	logger    *log.Logger
	now       func() time.Time
}

func NewRecurringIncomeService(store *Store, processor *RecurringProcessor, logger *log.Logger) *RecurringIncomeService {
	return &RecurringIncomeService{
		records: records[core.RecurringIncome]{
			coll: store.RecurringIncomes,
			assign: func(t core.RecurringIncome, userID, id string) core.RecurringIncome {
				t.UserID, t.ID = userID, id
				t.RecurringID = ""
				if t.Date.IsZero() {
					t.Date = t.RecurrenceRule.StartDate
				}
				t.Date = recurrence.Truncate(t.Date)
				t.EndedAt = nil
				return t
			},
			keep: func(stored, t core.RecurringIncome) core.RecurringIncome {
				t.EndedAt = stored.EndedAt
				return t
			},
		},
		processor: processor,
		logger:    logger.WithComponent(log.ComponentRecurring),
		now:       time.Now,
	}
}

func (s *RecurringIncomeService) processDue(ctx context.Context, userID string) {
	if s.processor == nil {
		return
	}
	if _, err := s.processor.ProcessUserIncomes(ctx, userID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "Failed to process due recurring incomes",
			log.FieldUserID, userID,
			log.FieldError, err)
	}
}

func (s *RecurringIncomeService) Get(ctx context.Context, userID, id string) (core.RecurringIncome, error) {
	s.processDue(ctx, userID)
	return s.records.Get(ctx, userID, id)
}

func (s *RecurringIncomeService) List(ctx context.Context, userID string) ([]core.RecurringIncome, error) {
	s.processDue(ctx, userID)
	return s.records.List(ctx, userID)
}

func (s *RecurringIncomeService) RRule(ctx context.Context, userID, id string) (string, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return t.RecurrenceRule.RRuleString()
}
