package services

import (
	"context"
	"fmt"

	"walletguru/internal/core"
	"walletguru/internal/recurrence"
)

// ExpenseService manages one-off expenses.
type ExpenseService struct {
	records[core.Expense]
}

func NewExpenseService(store *Store) *ExpenseService {
	return &ExpenseService{records[core.Expense]{
		coll: store.Expenses,
		assign: func(e core.Expense, userID, id string) core.Expense {
			e.UserID, e.ID = userID, id
			e.Date = recurrence.Truncate(e.Date)
			return e
		},
		keep: func(stored, e core.Expense) core.Expense {
			e.RecurringID = stored.RecurringID
			return e
		},
	}}
}

// ListByCategory returns the user's expenses filed under one category.
func (s *ExpenseService) ListByCategory(ctx context.Context, userID, categoryID string) ([]core.Expense, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return core.FilterByCategory(all, categoryID), nil
}

// IncomeService manages one-off incomes.
type IncomeService struct {
	records[core.Income]
}

func NewIncomeService(store *Store) *IncomeService {
	return &IncomeService{records[core.Income]{
		coll: store.Incomes,
		assign: func(i core.Income, userID, id string) core.Income {
			i.UserID, i.ID = userID, id
			i.Date = recurrence.Truncate(i.Date)
			return i
		},
		keep: func(stored, i core.Income) core.Income {
			i.RecurringID = stored.RecurringID
			return i
		},
	}}
}
