package core

import "time"

// Dated is implemented by records that happen on a single date.
type Dated interface {
	OccurredOn() time.Time
}

func (e Expense) OccurredOn() time.Time { return e.Date }
func (i Income) OccurredOn() time.Time  { return i.Date }

// FilterByDateRange keeps the records dated within [from, to], both inclusive.
func FilterByDateRange[T Dated](items []T, from, to time.Time) []T {
	var out []T
	for _, it := range items {
		d := it.OccurredOn()
		if !d.Before(from) && !d.After(to) {
			out = append(out, it)
		}
	}
	return out
}

// FilterByWindow keeps the records dated within [start, end).
func FilterByWindow[T Dated](items []T, start, end time.Time) []T {
	var out []T
	for _, it := range items {
		d := it.OccurredOn()
		if !d.Before(start) && d.Before(end) {
			out = append(out, it)
		}
	}
	return out
}

// FilterByMonth keeps the records dated in the given calendar month (UTC).
func FilterByMonth[T Dated](items []T, year int, month time.Month) []T {
	var out []T
	for _, it := range items {
		y, m, _ := it.OccurredOn().UTC().Date()
		if y == year && m == month {
			out = append(out, it)
		}
	}
	return out
}

func FilterByCategory(expenses []Expense, categoryID string) []Expense {
	var out []Expense
	for _, e := range expenses {
		if e.CategoryID == categoryID {
			out = append(out, e)
		}
	}
	return out
}

// Total sums the amounts of expenses or incomes.
func Total[T interface{ Amounted() Money }](items []T) Money {
	var sum Money
	for _, it := range items {
		sum = sum.Add(it.Amounted())
	}
	return sum
}

func (e Expense) Amounted() Money { return e.Amount }
func (i Income) Amounted() Money  { return i.Amount }
