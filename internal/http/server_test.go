package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletguru/internal/auth"
	"walletguru/internal/claim"
	"walletguru/internal/ledger/memory"
	"walletguru/internal/log"
	"walletguru/internal/services"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	server  *Server
}

func newTestAPI(t *testing.T, checks ...Check) *testAPI {
	t.Helper()
	logger := log.New(log.Config{Output: io.Discard})
	store := services.NewStore(memory.New())
	categories := services.NewExpenseCategoryService(store, logger)
	processor := services.NewRecurringProcessor(store, categories, claim.NewMemory(), nil, time.Hour, logger)

	srv := NewServer(Options{Addr: ":0", RateLimitPerMin: 1000, Logger: logger}, Deps{
		Expenses:          services.NewExpenseService(store),
		Incomes:           services.NewIncomeService(store),
		ExpenseCategories: categories,
		IncomeCategories:  services.NewIncomeCategoryService(store),
		Goals:             services.NewGoalService(store),
		RecurringExpenses: services.NewRecurringExpenseService(store, processor, logger),
		RecurringIncomes:  services.NewRecurringIncomeService(store, processor, logger),
		Users:             services.NewUserService(store),
		Analytics:         services.NewAnalyticsService(store),
		Processor:         processor,
		Tokens:            auth.NewTokens("0123456789abcdef", time.Hour),
		Checks:            checks,
	})
	return &testAPI{t: t, handler: srv.Handler, server: srv}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/users/register", "", map[string]string{"email": email, "password": "correct horse"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp tokenResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice@example.com")

	rec := api.do(http.MethodPost, "/api/users/register", "", map[string]string{"email": "alice@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/users/register", "", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	p := decode[ProblemDetail](t, rec)
	assert.Contains(t, p.Errors, "Email")
	assert.Contains(t, p.Errors, "Password")

	rec = api.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "alice@example.com", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "ALICE@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[tokenResponse](t, rec).Token

	rec = api.do(http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.Equal(t, "alice@example.com", decode[userView](t, rec).Email)
}

func TestRequiresBearerToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/expenses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = api.do(http.MethodGet, "/api/expenses", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpenseCRUD(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice@example.com")
	bob := api.register("bob@example.com")

	rec := api.do(http.MethodPost, "/api/expenses", alice, `{"title":"Groceries","amount":"42.50","date":"2025-03-04T00:00:00Z","categoryID":"food"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	id := created["id"].(string)
	assert.Equal(t, 42.5, created["amount"])

	rec = api.do(http.MethodGet, "/api/expenses/"+id, alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/expenses/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/expenses", bob, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = api.do(http.MethodPut, "/api/expenses/"+id, alice, `{"title":"Supermarket","amount":40,"date":"2025-03-04T00:00:00Z","categoryID":"food"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Supermarket", decode[map[string]any](t, rec)["title"])

	rec = api.do(http.MethodDelete, "/api/expenses/"+id, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodDelete, "/api/expenses/"+id, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice@example.com")

	rec := api.do(http.MethodPost, "/api/expenses", alice, `{"title":"x","amount":-1,"date":"2025-03-04T00:00:00Z","categoryID":"food"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(http.MethodPost, "/api/expenses", alice, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/expenses", alice, `{"title":"x","amount":5,"categoryID":"food"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ProblemDetail](t, rec).Detail, "date is required")
}

func TestRecurringExpenseLifecycle(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice@example.com")

	rec := api.do(http.MethodPost, "/api/recurring-expenses", alice, `{
		"title":"Rent","amount":900,"categoryID":"housing",
		"recurrenceRule":{"frequency":"Fortnightly","interval":1,"startDate":"2024-01-31T00:00:00Z"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(http.MethodPost, "/api/recurring-expenses", alice, `{
		"title":"Rent","amount":900,"categoryID":"housing",
		"recurrenceRule":{"frequency":"Monthly","interval":0,"startDate":"2024-01-31T00:00:00Z"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(http.MethodPost, "/api/recurring-expenses", alice, `{
		"title":"Rent","amount":900,"categoryID":"housing",
		"recurrenceRule":{"frequency":"Monthly","interval":1,"startDate":"2024-01-31T00:00:00Z","endDate":"2024-04-30T00:00:00Z"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]any](t, rec)["id"].(string)

	rec = api.do(http.MethodPost, "/api/recurring/process", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.ProcessResult](t, rec)
	assert.Equal(t, 4, res.Materialized)
	assert.Equal(t, 1, res.Retired)

	rec = api.do(http.MethodGet, "/api/recurring-expenses/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tmpl := decode[map[string]any](t, rec)
	assert.NotNil(t, tmpl["endedAt"])
	rule := tmpl["recurrenceRule"].(map[string]any)
	assert.Equal(t, "2024-04-30T00:00:00Z", rule["nextTriggerDate"])

	rec = api.do(http.MethodGet, "/api/expenses", alice, nil)
	expenses := decode[[]map[string]any](t, rec)
	require.Len(t, expenses, 4)
	dates := make([]string, 0, len(expenses))
	for _, e := range expenses {
		dates = append(dates, e["date"].(string))
	}
	assert.ElementsMatch(t, []string{
		"2024-01-31T00:00:00Z", "2024-02-29T00:00:00Z", "2024-03-31T00:00:00Z", "2024-04-30T00:00:00Z",
	}, dates)

	rec = api.do(http.MethodPost, "/api/recurring/process", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[services.ProcessResult](t, rec).Materialized)

	rec = api.do(http.MethodGet, "/api/recurring-expenses/"+id+"/rrule", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["rrule"], "FREQ=MONTHLY")

	rec = api.do(http.MethodGet, "/api/recurring-expenses/"+id+"/rrule?format=text", alice, nil)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestAnalyticsEndpoints(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice@example.com")

	rec := api.do(http.MethodPost, "/api/expense-categories", alice, `{"name":"Food","monthlyBudget":100,
		"recurrenceRule":{"frequency":"Monthly","interval":1,"startDate":"2025-03-01T00:00:00Z","nextTriggerDate":"2025-04-01T00:00:00Z"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	catID := decode[map[string]any](t, rec)["id"].(string)

	rec = api.do(http.MethodPost, "/api/expenses", alice, map[string]any{
		"title": "Lunch", "amount": 25, "date": "2025-03-10T00:00:00Z", "categoryID": catID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/analytics/categories?year=2025&month=3", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Food"`)

	rec = api.do(http.MethodGet, "/api/analytics/categories?year=2025&month=13", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/analytics/budget/"+catID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	progress := decode[map[string]any](t, rec)
	assert.Equal(t, 25.0, progress["spent"])
	assert.InDelta(t, 0.25, progress["used"], 1e-9)

	for _, offset := range []string{"abc", "-1", "1000000000"} {
		rec = api.do(http.MethodGet, "/api/analytics/budget/"+catID+"?offset="+offset, alice, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "offset=%s", offset)
	}

	rec = api.do(http.MethodGet, "/api/analytics/income-vs-expenses?months=3", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 3)
}

func TestGoalContribution(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice@example.com")

	rec := api.do(http.MethodPost, "/api/goals", alice, `{"title":"Bike","description":"road bike","target":500}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]any](t, rec)["id"].(string)

	rec = api.do(http.MethodPost, "/api/goals/"+id+"/contributions", alice, `{"amount":125}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 125.0, decode[map[string]any](t, rec)["current"])
}

func TestHealthAndReadiness(t *testing.T) {
	api := newTestAPI(t,
		Check{Name: "ledger", Ping: func(context.Context) error { return nil }},
		Check{Name: "broker", Ping: func(context.Context) error { return errors.New("connection refused") }},
	)

	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = api.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]any](t, rec)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["ledger"])
	assert.Contains(t, checks["broker"], "connection refused")

	rec = api.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseSearch(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice@example.com")
	for _, e := range []map[string]any{
		{"title": "Lunch", "amount": 12, "date": "2025-03-01T00:00:00Z", "categoryID": "food"},
		{"title": "Dinner", "amount": 30, "date": "2025-03-20T00:00:00Z", "categoryID": "food"},
		{"title": "Bus", "amount": 2, "date": "2025-03-05T00:00:00Z", "categoryID": "transport"},
	} {
		rec := api.do(http.MethodPost, "/api/expenses", alice, e)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := api.do(http.MethodGet, "/api/expenses/search?category=food&from=2025-03-01&to=2025-03-10", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Len(t, body["expenses"], 1)
	assert.Equal(t, 12.0, body["total"])

	rec = api.do(http.MethodGet, "/api/expenses/search?from=2025-03-02", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 32.0, decode[map[string]any](t, rec)["total"])

	rec = api.do(http.MethodGet, "/api/expenses/search?from=2025-03-10&to=2025-03-01", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/expenses/search?from=yesterday", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArchiveExpiredGoals(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice@example.com")

	rec := api.do(http.MethodPost, "/api/goals", alice, `{"title":"Old trip","target":100,"targetDate":"2020-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = api.do(http.MethodPost, "/api/goals", alice, `{"title":"Someday","target":100}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/goals/archive-expired", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[map[string]int](t, rec)["archived"])
}

func TestVerifyAccount(t *testing.T) {
	api := newTestAPI(t)
	alice := api.register("alice@example.com")

	rec := api.do(http.MethodGet, "/api/users/me", alice, nil)
	assert.Equal(t, "PENDING", string(decode[userView](t, rec).Status))

	rec = api.do(http.MethodPost, "/api/users/me/verify", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "VERIFIED", string(decode[userView](t, rec).Status))
}
