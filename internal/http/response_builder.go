package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"walletguru/internal/auth"
	"walletguru/internal/core"
	"walletguru/internal/ledger"
	"walletguru/internal/log"
	"walletguru/internal/recurrence"
	"walletguru/internal/services"
)

// ProblemDetail is an RFC 7807 problem response.
type ProblemDetail struct {
	Type     string            `json:"type,omitempty"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, r *http.Request, p ProblemDetail) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	p.Instance = r.URL.Path
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func problem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblem(w, r, ProblemDetail{Title: http.StatusText(status), Status: status, Detail: detail})
}

var (
	errBadRequest   = errors.New("bad request")
	errUnauthorized = errors.New("unauthorized")
)

var unprocessable = []error{
	recurrence.ErrUnsupportedFrequency,
	recurrence.ErrInvalidInterval,
	recurrence.ErrMissingStartDate,
	recurrence.ErrTriggerBeforeStart,
	recurrence.ErrEndBeforeStart,
	core.ErrInvalidAmount,
	core.ErrEmptyTitle,
	core.ErrTitleTooLong,
	core.ErrMissingDate,
	core.ErrMissingUser,
	core.ErrMissingCategory,
	core.ErrEmptyName,
	core.ErrInvalidEmail,
	core.ErrInvalidStatus,
	core.ErrInvalidBudget,
	auth.ErrWeakPassword,
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrExists), errors.Is(err, recurrence.ErrScheduleExhausted):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errBadRequest), errors.Is(err, ledger.ErrInvalidKey), errors.Is(err, services.ErrInvalidRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the problem response for err. Internal errors are
// logged and their detail is withheld from the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		problem(w, r, status, "")
		return
	}
	problem(w, r, status, err.Error())
}
