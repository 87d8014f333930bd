package core

import "time"

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	CategoryID string `json:"categoryID"`
	Name       string `json:"name"`
	Total      Money  `json:"total"`
}

// MonthTotals compares what came in and went out during one month.
type MonthTotals struct {
	Year     int   `json:"year"`
	Month    int   `json:"month"` // 1-12
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	Savings  Money `json:"savings"`
}

// BudgetProgress is the spending of a category inside one budget window.
type BudgetProgress struct {
	CategoryID  string    `json:"categoryID"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	Budget      Money     `json:"budget"`
	Spent       Money     `json:"spent"`
	Used        float64   `json:"used"`
}
