// Package services implements the finance operations on top of the ledger:
// record CRUD, materialization of recurring templates, budget cycles and
// analytics.
package services

import (
	"context"

	"walletguru/internal/amqp"
	"walletguru/internal/core"
	"walletguru/internal/ledger"
)

// Ledger object types.
const (
	TypeExpense          = "Expense"
	TypeIncome           = "Income"
	TypeRecurringExpense = "RecurringExpense"
	TypeRecurringIncome  = "RecurringIncome"
	TypeExpenseCategory  = "ExpenseCategory"
	TypeIncomeCategory   = "IncomeCategory"
	TypeGoal             = "Goal"
	TypeUser             = "User"
)

// Store groups the typed collections over one ledger state.
type Store struct {
	Expenses          *ledger.Collection[core.Expense]
	Incomes           *ledger.Collection[core.Income]
	RecurringExpenses *ledger.Collection[core.RecurringExpense]
	RecurringIncomes  *ledger.Collection[core.RecurringIncome]
	ExpenseCategories *ledger.Collection[core.ExpenseCategory]
	IncomeCategories  *ledger.Collection[core.IncomeCategory]
	Goals             *ledger.Collection[core.Goal]
	Users             *ledger.Collection[core.User]
}

func NewStore(state ledger.State) *Store {
	return &Store{
		Expenses:          ledger.NewCollection[core.Expense](state, TypeExpense),
		Incomes:           ledger.NewCollection[core.Income](state, TypeIncome),
		RecurringExpenses: ledger.NewCollection[core.RecurringExpense](state, TypeRecurringExpense),
		RecurringIncomes:  ledger.NewCollection[core.RecurringIncome](state, TypeRecurringIncome),
		ExpenseCategories: ledger.NewCollection[core.ExpenseCategory](state, TypeExpenseCategory),
		IncomeCategories:  ledger.NewCollection[core.IncomeCategory](state, TypeIncomeCategory),
		Goals:             ledger.NewCollection[core.Goal](state, TypeGoal),
		Users:             ledger.NewCollection[core.User](state, TypeUser),
	}
}

var newID = core.NewID

// Publisher announces materialized transactions. *amqp.Client implements it.
type Publisher interface {
	PublishMaterialized(ctx context.Context, evt *amqp.TransactionEvent) error
}
