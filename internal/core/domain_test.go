package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"walletguru/internal/recurrence"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validExpense() Expense {
	return Expense{
		ID:         "e1",
		UserID:     "u1",
		Title:      "Groceries",
		Amount:     Cents(4599),
		Date:       day(2025, 1, 1),
		CategoryID: "c1",
	}
}

func TestExpenseValidate(t *testing.T) {
	if err := validExpense().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*Expense)
		want   error
	}{
		{func(e *Expense) { e.UserID = "" }, ErrMissingUser},
		{func(e *Expense) { e.Title = "  " }, ErrEmptyTitle},
		{func(e *Expense) { e.Title = strings.Repeat("x", 201) }, ErrTitleTooLong},
		{func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{func(e *Expense) { e.Date = time.Time{} }, ErrMissingDate},
		{func(e *Expense) { e.CategoryID = "" }, ErrMissingCategory},
	}
	for i, tc := range cases {
		e := validExpense()
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestIncomeValidateWithoutCategory(t *testing.T) {
	in := Income{UserID: "u1", Title: "Salary", Amount: Cents(250000), Date: day(2025, 1, 27)}
	if err := in.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestRecurringExpenseMaterialize(t *testing.T) {
	rule, err := recurrence.NewRule(recurrence.Monthly, 1, day(2025, 1, 31), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := RecurringExpense{Expense: validExpense(), RecurrenceRule: rule}
	tmpl.ID = "tmpl-1"
	tmpl.Receipt = "receipt.png"

	if err := tmpl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !tmpl.Active() {
		t.Fatal("new template should be active")
	}

	on := time.Date(2025, 2, 28, 13, 0, 0, 0, time.UTC)
	got := tmpl.Materialize(on)
	if got.RecurringID != "tmpl-1" || !got.Date.Equal(day(2025, 2, 28)) || got.Receipt != "" {
		t.Fatalf("unexpected materialized expense %+v", got)
	}
	if got.ID != OccurrenceID("tmpl-1", day(2025, 2, 28)) {
		t.Fatal("materialized id should be derived from template and date")
	}
	if again := tmpl.Materialize(on); again.ID != got.ID {
		t.Fatal("materialize should be deterministic")
	}
	if other := tmpl.Materialize(day(2025, 3, 31)); other.ID == got.ID {
		t.Fatal("different occurrences must not share an id")
	}
}

func TestRecurringExpenseJSON(t *testing.T) {
	rule, _ := recurrence.NewRule(recurrence.Weekly, 1, day(2025, 1, 6), nil, nil)
	tmpl := RecurringExpense{Expense: validExpense(), RecurrenceRule: rule}

	b, err := json.Marshal(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"title":"Groceries"`, `"amount":45.99`, `"recurrenceRule":{`, `"frequency":"Weekly"`} {
		if !strings.Contains(string(b), key) {
			t.Errorf("missing %s in %s", key, b)
		}
	}
	if strings.Contains(string(b), "endedAt") {
		t.Errorf("active template should not carry endedAt: %s", b)
	}

	var back RecurringExpense
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back.Title != tmpl.Title || back.RecurrenceRule.Frequency != recurrence.Weekly {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestExpenseCategoryBudgetCycle(t *testing.T) {
	rule, _ := recurrence.NewRule(recurrence.Monthly, 1, day(2025, 1, 1), nil, nil)
	c := ExpenseCategory{UserID: "u1", Name: "Food", MonthlyBudget: Cents(40000), RecurrenceRule: &rule}

	if got := c.BudgetUsed(Cents(10000)); got != 0.25 {
		t.Fatalf("BudgetUsed = %v", got)
	}
	if !c.ShouldResetBudget(day(2025, 1, 1)) {
		t.Fatal("cycle should be due on its trigger date")
	}

	changed, err := c.UpdateBudgetCycle(day(2025, 3, 10))
	if err != nil || !changed {
		t.Fatalf("UpdateBudgetCycle = %v, %v", changed, err)
	}
	if !c.RecurrenceRule.NextTriggerDate.Equal(day(2025, 4, 1)) {
		t.Fatalf("next reset = %v", c.RecurrenceRule.NextTriggerDate)
	}

	changed, err = c.UpdateBudgetCycle(day(2025, 3, 11))
	if err != nil || changed {
		t.Fatalf("second UpdateBudgetCycle = %v, %v", changed, err)
	}

	plain := ExpenseCategory{UserID: "u1", Name: "Misc"}
	if plain.ShouldResetBudget(day(2030, 1, 1)) {
		t.Fatal("category without rule never resets")
	}
}

func TestExpenseCategoryBudgetCycleExhausted(t *testing.T) {
	end := day(2025, 3, 1)
	rule, _ := recurrence.NewRule(recurrence.Monthly, 1, day(2025, 1, 1), nil, &end)
	c := ExpenseCategory{UserID: "u1", Name: "Food", RecurrenceRule: &rule}

	changed, err := c.UpdateBudgetCycle(day(2025, 6, 1))
	if !errors.Is(err, recurrence.ErrScheduleExhausted) || !changed {
		t.Fatalf("UpdateBudgetCycle = %v, %v", changed, err)
	}
	if !c.RecurrenceRule.NextTriggerDate.Equal(end) {
		t.Fatalf("next reset = %v, want %v", c.RecurrenceRule.NextTriggerDate, end)
	}

	changed, err = c.UpdateBudgetCycle(day(2025, 6, 2))
	if !errors.Is(err, recurrence.ErrScheduleExhausted) || changed {
		t.Fatalf("second UpdateBudgetCycle = %v, %v", changed, err)
	}
}

func TestGoal(t *testing.T) {
	target := day(2025, 6, 1)
	g := Goal{UserID: "u1", Title: "Holiday", Target: Cents(100000), Status: GoalActive, TargetDate: &target}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}

	g.Contribute(Cents(25000))
	g.Contribute(Cents(25000))
	if g.Progress() != 0.5 {
		t.Fatalf("Progress = %v", g.Progress())
	}
	if g.IsTimeUp(day(2025, 5, 31)) {
		t.Fatal("not yet time")
	}
	if !g.IsTimeUp(target) {
		t.Fatal("time should be up on the target date")
	}

	g.Archive()
	if g.Status != GoalArchived {
		t.Fatalf("Status = %v", g.Status)
	}

	g.Status = "Paused"
	if err := g.Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("got %v, want ErrInvalidStatus", err)
	}
}

func TestUserValidate(t *testing.T) {
	u := User{Email: "a@b.c", Status: UserPending}
	if err := u.Validate(); err != nil {
		t.Fatal(err)
	}
	u.Email = "nope"
	if err := u.Validate(); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("got %v", err)
	}
}
