package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"walletguru/internal/core"
	"walletguru/internal/recurrence"
)

const uncategorised = "Uncategorised"

var ErrInvalidRange = errors.New("invalid range")

// maxPeriods bounds how far back analytics look, in months or budget windows.
const maxPeriods = 120

// AnalyticsService aggregates a user's transactions for reporting.
type AnalyticsService struct {
	store *Store
	now   func() time.Time
}

func NewAnalyticsService(store *Store) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// CategoryDistribution totals the user's expenses of one month by category,
// largest first.
func (s *AnalyticsService) CategoryDistribution(ctx context.Context, userID string, year int, month time.Month) ([]core.CategoryAmount, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidRange, month)
	}
	expenses, err := s.store.Expenses.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	categories, err := s.store.ExpenseCategories.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expense categories: %w", err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	totals := make(map[string]core.Money)
	for _, e := range core.FilterByMonth(expenses, year, month) {
		totals[e.CategoryID] = totals[e.CategoryID].Add(e.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for id, total := range totals {
		name, ok := names[id]
		if !ok {
			name = uncategorised
		}
		out = append(out, core.CategoryAmount{CategoryID: id, Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// IncomeVsExpenses returns the totals of the last months calendar months up
// to and including the current one, oldest first. Savings is income minus
// expenses and may be negative.
func (s *AnalyticsService) IncomeVsExpenses(ctx context.Context, userID string, months int) ([]core.MonthTotals, error) {
	if months < 1 || months > maxPeriods {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", ErrInvalidRange, maxPeriods)
	}
	expenses, err := s.store.Expenses.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	incomes, err := s.store.Incomes.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}

	now := recurrence.Truncate(s.now())
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	out := make([]core.MonthTotals, 0, months)
	for i := range months {
		m := first.AddDate(0, i, 0)
		in := core.Total(core.FilterByMonth(incomes, m.Year(), m.Month()))
		outgo := core.Total(core.FilterByMonth(expenses, m.Year(), m.Month()))
		out = append(out, core.MonthTotals{
			Year:     m.Year(),
			Month:    int(m.Month()),
			Income:   in,
			Expenses: outgo,
			Savings:  in.Sub(outgo),
		})
	}
	return out, nil
}

// BudgetProgress reports spending in a category against its budget. The
// window comes from the category's reset rule: offset 0 is the window that
// ends at the next reset, 1 the one before it. Categories without a rule use
// calendar months.
func (s *AnalyticsService) BudgetProgress(ctx context.Context, userID, categoryID string, offset int) (core.BudgetProgress, error) {
	if offset < 0 || offset > maxPeriods {
		return core.BudgetProgress{}, fmt.Errorf("%w: offset must be between 0 and %d", ErrInvalidRange, maxPeriods)
	}
	category, err := s.store.ExpenseCategories.Get(ctx, userID, categoryID)
	if err != nil {
		return core.BudgetProgress{}, err
	}

	var start, end time.Time
	if category.RecurrenceRule != nil {
		start, end, err = category.RecurrenceRule.Window(offset)
		if err != nil {
			return core.BudgetProgress{}, fmt.Errorf("budget window: %w", err)
		}
	} else {
		now := recurrence.Truncate(s.now())
		start = time.Date(now.Year(), now.Month()-time.Month(offset), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	}

	expenses, err := s.store.Expenses.List(ctx, userID)
	if err != nil {
		return core.BudgetProgress{}, fmt.Errorf("list expenses: %w", err)
	}
	spent := core.Total(core.FilterByWindow(core.FilterByCategory(expenses, categoryID), start, end))

	return core.BudgetProgress{
		CategoryID:  categoryID,
		WindowStart: start,
		WindowEnd:   end,
		Budget:      category.MonthlyBudget,
		Spent:       spent,
		Used:        category.BudgetUsed(spent),
	}, nil
}
