// Package core holds the finance records exchanged between the ledger, the
// services and the HTTP layer, together with their validation rules.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"walletguru/internal/recurrence"
)

const (
	maxTitleLength = 200
	DefaultColour  = "#FFFFFF"
)

type (
	GoalStatus string
	UserStatus string
)

const (
	GoalActive   GoalStatus = "Active"
	GoalArchived GoalStatus = "Archived"

	UserPending  UserStatus = "PENDING"
	UserVerified UserStatus = "VERIFIED"
)

type (
	Expense struct {
		ID          string    `json:"id"`
		UserID      string    `json:"userID"`
		Title       string    `json:"title"`
		Amount      Money     `json:"amount"`
		Date        time.Time `json:"date"`
		Notes       string    `json:"notes,omitempty"`
		CategoryID  string    `json:"categoryID"`
		Receipt     string    `json:"receipt,omitempty"`
		RecurringID string    `json:"recurringID,omitempty"` // template that materialized it
	}

	Income struct {
		ID          string    `json:"id"`
		UserID      string    `json:"userID"`
		Title       string    `json:"title"`
		Amount      Money     `json:"amount"`
		Date        time.Time `json:"date"`
		Notes       string    `json:"notes,omitempty"`
		CategoryID  string    `json:"categoryID,omitempty"`
		RecurringID string    `json:"recurringID,omitempty"`
	}

	// RecurringExpense is a template that materializes an Expense on every
	// occurrence of its rule. EndedAt is set once the rule is exhausted.
	RecurringExpense struct {
		Expense
		RecurrenceRule recurrence.Rule `json:"recurrenceRule"`
		EndedAt        *time.Time      `json:"endedAt,omitempty"`
	}

	RecurringIncome struct {
		Income
		RecurrenceRule recurrence.Rule `json:"recurrenceRule"`
		EndedAt        *time.Time      `json:"endedAt,omitempty"`
	}

	ExpenseCategory struct {
		ID             string           `json:"id"`
		UserID         string           `json:"userID"`
		Name           string           `json:"name"`
		Colour         string           `json:"colour"`
		MonthlyBudget  Money            `json:"monthlyBudget"`
		RecurrenceRule *recurrence.Rule `json:"recurrenceRule,omitempty"` // budget reset cycle
	}

	IncomeCategory struct {
		ID     string `json:"id"`
		UserID string `json:"userID"`
		Name   string `json:"name"`
		Colour string `json:"colour"`
	}

	Goal struct {
		ID          string     `json:"id"`
		UserID      string     `json:"userID"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		Target      Money      `json:"target"`
		Current     Money      `json:"current"`
		TargetDate  *time.Time `json:"targetDate,omitempty"`
		Status      GoalStatus `json:"status"`
		CreatedAt   time.Time  `json:"date"`
	}

	User struct {
		ID           string     `json:"id"`
		Email        string     `json:"email"`
		PasswordHash string     `json:"passwordHash"`
		DateJoined   time.Time  `json:"dateJoined"`
		Status       UserStatus `json:"status"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrMissingDate     = errors.New("date is required")
	ErrMissingUser     = errors.New("user id is required")
	ErrMissingCategory = errors.New("category id is required")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidBudget   = errors.New("monthly budget must not be negative")
)

// NewID returns a fresh random record identifier.
func NewID() string {
	return uuid.NewString()
}

var occurrenceNamespace = uuid.MustParse("5b0c4f0e-6a43-4b8e-9a4c-3c1f1c8d2e71")

// OccurrenceID derives the identifier of the transaction a template
// materializes on a given date. The same pair always yields the same ID.
func OccurrenceID(templateID string, on time.Time) string {
	name := templateID + "|" + recurrence.Truncate(on).Format(time.DateOnly)
	return uuid.NewSHA1(occurrenceNamespace, []byte(name)).String()
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > maxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return ErrMissingUser
	}
	if err := validateTitle(e.Title); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrMissingCategory
	}
	return nil
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.UserID) == "" {
		return ErrMissingUser
	}
	if err := validateTitle(i.Title); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if i.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (r RecurringExpense) Validate() error {
	if err := r.Expense.Validate(); err != nil {
		return err
	}
	return r.RecurrenceRule.Validate()
}

func (r RecurringIncome) Validate() error {
	if err := r.Income.Validate(); err != nil {
		return err
	}
	return r.RecurrenceRule.Validate()
}

func (r RecurringExpense) Active() bool { return r.EndedAt == nil }
func (r RecurringIncome) Active() bool  { return r.EndedAt == nil }

// Materialize returns the concrete expense for one occurrence of the template.
func (r RecurringExpense) Materialize(on time.Time) Expense {
	e := r.Expense
	e.ID = OccurrenceID(r.ID, on)
	e.Date = recurrence.Truncate(on)
	e.RecurringID = r.ID
	e.Receipt = ""
	return e
}

func (r RecurringIncome) Materialize(on time.Time) Income {
	i := r.Income
	i.ID = OccurrenceID(r.ID, on)
	i.Date = recurrence.Truncate(on)
	i.RecurringID = r.ID
	return i
}

func (c ExpenseCategory) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.MonthlyBudget.Cents < 0 {
		return ErrInvalidBudget
	}
	if c.RecurrenceRule != nil {
		return c.RecurrenceRule.Validate()
	}
	return nil
}

// BudgetUsed returns spent as a fraction of the monthly budget.
func (c ExpenseCategory) BudgetUsed(spent Money) float64 {
	return spent.Ratio(c.MonthlyBudget)
}

// ShouldResetBudget reports whether the budget cycle has rolled over.
func (c ExpenseCategory) ShouldResetBudget(now time.Time) bool {
	return c.RecurrenceRule != nil && c.RecurrenceRule.ShouldTrigger(now)
}

// UpdateBudgetCycle advances the reset rule when it is due. It reports
// whether the trigger date moved; an exhausted rule that stays put is
// unchanged even though the error is still returned.
func (c *ExpenseCategory) UpdateBudgetCycle(now time.Time) (bool, error) {
	if !c.ShouldResetBudget(now) {
		return false, nil
	}
	before := c.RecurrenceRule.NextTriggerDate
	next, err := c.RecurrenceRule.ComputeNextTriggerDate(now)
	return !next.Equal(before), err
}

func (c IncomeCategory) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrMissingUser
	}
	if err := validateTitle(g.Title); err != nil {
		return err
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	switch g.Status {
	case GoalActive, GoalArchived:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// Progress is the fraction of the target reached so far.
func (g Goal) Progress() float64 {
	return g.Current.Ratio(g.Target)
}

func (g Goal) IsTimeUp(now time.Time) bool {
	return g.TargetDate != nil && !now.Before(*g.TargetDate)
}

func (g *Goal) Contribute(amount Money) {
	g.Current = g.Current.Add(amount)
}

func (g *Goal) Archive() {
	g.Status = GoalArchived
}

func (u User) Validate() error {
	email := strings.TrimSpace(u.Email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	switch u.Status {
	case UserPending, UserVerified:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// Ledger keys: records are owned by a user, users are keyed by email.

func (e Expense) Key() []string         { return []string{e.UserID, e.ID} }
func (i Income) Key() []string          { return []string{i.UserID, i.ID} }
func (c ExpenseCategory) Key() []string { return []string{c.UserID, c.ID} }
func (c IncomeCategory) Key() []string  { return []string{c.UserID, c.ID} }
func (g Goal) Key() []string            { return []string{g.UserID, g.ID} }
func (u User) Key() []string            { return []string{NormalizeEmail(u.Email)} }

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
