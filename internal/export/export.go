// Package export defines where materialized transactions are mirrored to.
package export

import (
	"context"

	"walletguru/internal/core"
)

// Row is one exported transaction, flattened for spreadsheet-like sinks.
type Row struct {
	Kind          string
	TransactionID string
	TemplateID    string
	UserID        string
	Date          string // YYYY-MM-DD
	Title         string
	Amount        core.Money
	Category      string
	Notes         string
}

// Exporter appends rows to an external sink and returns a reference to the
// written location.
type Exporter interface {
	Export(ctx context.Context, row Row) (ref string, err error)
}

func ExpenseRow(e core.Expense, category string) Row {
	return Row{
		Kind:          "expense",
		TransactionID: e.ID,
		TemplateID:    e.RecurringID,
		UserID:        e.UserID,
		Date:          e.Date.UTC().Format("2006-01-02"),
		Title:         e.Title,
		Amount:        e.Amount,
		Category:      category,
		Notes:         e.Notes,
	}
}

func IncomeRow(i core.Income, category string) Row {
	return Row{
		Kind:          "income",
		TransactionID: i.ID,
		TemplateID:    i.RecurringID,
		UserID:        i.UserID,
		Date:          i.Date.UTC().Format("2006-01-02"),
		Title:         i.Title,
		Amount:        i.Amount,
		Category:      category,
		Notes:         i.Notes,
	}
}
