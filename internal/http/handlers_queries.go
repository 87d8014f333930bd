package http

import (
	"fmt"
	"net/http"
	"time"

	"walletguru/internal/core"
)

// handleExpenseSearch filters the caller's expenses by category and an
// inclusive date range. Every parameter is optional.
func (s *Server) handleExpenseSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := dateParam(q.Get("from"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	to, err := dateParam(q.Get("to"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		respondError(w, r, fmt.Errorf("%w: to is before from", errBadRequest))
		return
	}

	var expenses []core.Expense
	if category := q.Get("category"); category != "" {
		expenses, err = s.deps.Expenses.ListByCategory(r.Context(), userID(r), category)
	} else {
		expenses, err = s.deps.Expenses.List(r.Context(), userID(r))
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	if !from.IsZero() || !to.IsZero() {
		if to.IsZero() {
			to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		}
		expenses = core.FilterByDateRange(expenses, from, to)
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"expenses": expenses,
		"total":    core.Total(expenses),
	})
}

func (s *Server) handleArchiveGoals(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Goals.ArchiveExpired(r.Context(), userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"archived": n})
}

func dateParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", errBadRequest, v)
	}
	return t, nil
}
