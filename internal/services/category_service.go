package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"walletguru/internal/core"
	"walletguru/internal/log"
	"walletguru/internal/recurrence"
)

// ExpenseCategoryService manages expense categories and their budget cycles.
type ExpenseCategoryService struct {
	records[core.ExpenseCategory]
	logger *log.Logger
}

func NewExpenseCategoryService(store *Store, logger *log.Logger) *ExpenseCategoryService {
	return &ExpenseCategoryService{
		records: records[core.ExpenseCategory]{
			coll: store.ExpenseCategories,
			assign: func(c core.ExpenseCategory, userID, id string) core.ExpenseCategory {
				c.UserID, c.ID = userID, id
				c.Colour = colourOrDefault(c.Colour)
				return c
			},
		},
		logger: logger.WithComponent(log.ComponentBudget),
	}
}

// ResetBudgetCycles advances the reset rule of every category whose budget
// window has rolled over and returns how many categories were updated.
// Categories with a broken rule are logged and skipped.
func (s *ExpenseCategoryService) ResetBudgetCycles(ctx context.Context, now time.Time) (int, error) {
	categories, err := s.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list expense categories: %w", err)
	}

	updated := 0
	for _, c := range categories {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		changed, err := c.UpdateBudgetCycle(now)
		exhausted := errors.Is(err, recurrence.ErrScheduleExhausted)
		if err != nil && !exhausted {
			s.logger.WarnContext(ctx, "Skipping category with invalid budget rule",
				log.FieldCategoryID, c.ID,
				log.FieldError, err)
			continue
		}
		if !changed {
			continue
		}
		if exhausted {
			s.logger.InfoContext(ctx, "Budget cycle reached its end date",
				log.FieldCategoryID, c.ID,
				log.FieldUserID, c.UserID)
		}
		if err := s.coll.Update(ctx, c); err != nil {
			s.logger.ErrorContext(ctx, "Failed to persist budget cycle",
				log.FieldCategoryID, c.ID,
				log.FieldError, err)
			continue
		}
		updated++
		s.logger.InfoContext(ctx, "Budget cycle reset",
			log.FieldCategoryID, c.ID,
			log.FieldNextTrigger, c.RecurrenceRule.NextTriggerDate.Format(time.DateOnly))
	}
	return updated, nil
}

// IncomeCategoryService manages income categories.
type IncomeCategoryService struct {
	records[core.IncomeCategory]
}

func NewIncomeCategoryService(store *Store) *IncomeCategoryService {
	return &IncomeCategoryService{records[core.IncomeCategory]{
		coll: store.IncomeCategories,
		assign: func(c core.IncomeCategory, userID, id string) core.IncomeCategory {
			c.UserID, c.ID = userID, id
			c.Colour = colourOrDefault(c.Colour)
			return c
		},
	}}
}

func colourOrDefault(c string) string {
	if strings.TrimSpace(c) == "" {
		return core.DefaultColour
	}
	return c
}

// GoalService manages savings goals.
type GoalService struct {
	records[core.Goal]
	now func() time.Time
}

func NewGoalService(store *Store) *GoalService {
	s := &GoalService{now: time.Now}
	s.records = records[core.Goal]{
		coll: store.Goals,
		assign: func(g core.Goal, userID, id string) core.Goal {
			g.UserID, g.ID = userID, id
			if g.Status == "" {
				g.Status = core.GoalActive
			}
			if g.CreatedAt.IsZero() {
				g.CreatedAt = s.now().UTC()
			}
			return g
		},
		keep: func(stored, g core.Goal) core.Goal {
			g.CreatedAt = stored.CreatedAt
			return g
		},
	}
	return s
}

// Contribute adds amount to the goal's current savings.
func (s *GoalService) Contribute(ctx context.Context, userID, id string, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	g, err := s.Get(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}
	if g.Status == core.GoalArchived {
		return core.Goal{}, fmt.Errorf("goal %s: %w", id, core.ErrInvalidStatus)
	}
	g.Contribute(amount)
	if err := s.coll.Update(ctx, g); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// ArchiveExpired archives the user's active goals whose target date passed.
func (s *GoalService) ArchiveExpired(ctx context.Context, userID string) (int, error) {
	goals, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	now := s.now()
	archived := 0
	for _, g := range goals {
		if g.Status != core.GoalActive || !g.IsTimeUp(now) {
			continue
		}
		g.Archive()
		if err := s.coll.Update(ctx, g); err != nil {
			return archived, err
		}
		archived++
	}
	return archived, nil
}
