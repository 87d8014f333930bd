package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"walletguru/internal/core"
)

const defaultTrendMonths = 6

func (s *Server) handleCategoryDistribution(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	dist, err := s.deps.Analytics.CategoryDistribution(r.Context(), userID(r), params.Year, time.Month(params.Month))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if dist == nil {
		dist = []core.CategoryAmount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":       params.Year,
		"month":      params.Month,
		"categories": dist,
	})
}

func (s *Server) handleIncomeVsExpenses(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r.URL.Query(), "months", defaultTrendMonths)
	if err != nil {
		respondError(w, r, err)
		return
	}
	totals, err := s.deps.Analytics.IncomeVsExpenses(r.Context(), userID(r), months)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r.URL.Query(), "offset", 0)
	if err != nil {
		respondError(w, r, err)
		return
	}
	progress, err := s.deps.Analytics.BudgetProgress(r.Context(), userID(r), chi.URLParam(r, "categoryID"), offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
