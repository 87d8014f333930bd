package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"walletguru/internal/core"
)

type contributionRequest struct {
	Amount core.Money `json:"amount"`
}

func (s *Server) handleExpenseRRule(w http.ResponseWriter, r *http.Request) {
	s.writeRRule(w, r, s.deps.RecurringExpenses.RRule)
}

func (s *Server) handleIncomeRRule(w http.ResponseWriter, r *http.Request) {
	s.writeRRule(w, r, s.deps.RecurringIncomes.RRule)
}

func (s *Server) writeRRule(w http.ResponseWriter, r *http.Request, render func(ctx context.Context, userID, id string) (string, error)) {
	rule, err := render(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(rule + "\r\n"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"rrule": rule})
}

func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Processor.ProcessDue(r.Context(), s.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGoalContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	g, err := s.deps.Goals.Contribute(r.Context(), userID(r), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
