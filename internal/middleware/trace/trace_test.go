package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"walletguru/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(log.New(log.Config{Format: "json", Output: &buf}))

	var seen string
	var scoped *log.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		scoped = log.FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("X-Request-ID = %q, want %q", rec.Header().Get("X-Request-ID"), seen)
	}
	if scoped == nil || scoped.Component() != log.ComponentHTTP {
		t.Errorf("request logger not attached: %+v", scoped)
	}
	out := buf.String()
	if !strings.Contains(out, `"status_code":404`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("unexpected log output %q", out)
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d, want 1", got)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
