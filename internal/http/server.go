package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"walletguru/internal/auth"
	"walletguru/internal/core"
	"walletguru/internal/log"
	"walletguru/internal/middleware/ratelimit"
	"walletguru/internal/middleware/security"
	"walletguru/internal/middleware/trace"
	"walletguru/internal/services"
)

// Check is a named readiness check such as a ledger or broker ping.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Deps are the services the API exposes.
type Deps struct {
	Expenses          *services.ExpenseService
	Incomes           *services.IncomeService
	ExpenseCategories *services.ExpenseCategoryService
	IncomeCategories  *services.IncomeCategoryService
	Goals             *services.GoalService
	RecurringExpenses *services.RecurringExpenseService
	RecurringIncomes  *services.RecurringIncomeService
	Users             *services.UserService
	Analytics         *services.AnalyticsService
	Processor         *services.RecurringProcessor
	Tokens            *auth.Tokens
	Checks            []Check
}

type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RateLimitPerMin int
	Production      bool
	Logger          *log.Logger
}

type Server struct {
	http.Server
	deps    Deps
	tracer  *trace.Middleware
	logger  *log.Logger
	started time.Time
	now     func() time.Time
}

func NewServer(opts Options, deps Deps) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		deps:    deps,
		tracer:  trace.NewMiddleware(logger),
		logger:  logger.WithComponent(log.ComponentHTTP),
		started: time.Now(),
		now:     time.Now,
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(opts),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig(opts.Production)).Middleware)
	r.Use(ratelimit.Middleware(ratelimit.Config{Requests: opts.RateLimitPerMin, Window: time.Minute},
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			problem(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem(w, r, http.StatusNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem(w, r, http.StatusMethodNotAllowed, "")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(s.deps.Tokens))

			r.Get("/users/me", s.handleMe)
			r.Post("/users/me/verify", s.handleVerify)

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/search", s.handleExpenseSearch)
				recordRoutes[core.Expense](r, s.deps.Expenses)
			})
			r.Route("/incomes", func(r chi.Router) {
				recordRoutes[core.Income](r, s.deps.Incomes)
			})
			r.Route("/expense-categories", func(r chi.Router) {
				recordRoutes[core.ExpenseCategory](r, s.deps.ExpenseCategories)
			})
			r.Route("/income-categories", func(r chi.Router) {
				recordRoutes[core.IncomeCategory](r, s.deps.IncomeCategories)
			})
			r.Route("/goals", func(r chi.Router) {
				r.Post("/archive-expired", s.handleArchiveGoals)
				recordRoutes[core.Goal](r, s.deps.Goals)
				r.Post("/{id}/contributions", s.handleGoalContribution)
			})
			r.Route("/recurring-expenses", func(r chi.Router) {
				recordRoutes[core.RecurringExpense](r, s.deps.RecurringExpenses)
				r.Get("/{id}/rrule", s.handleExpenseRRule)
			})
			r.Route("/recurring-incomes", func(r chi.Router) {
				recordRoutes[core.RecurringIncome](r, s.deps.RecurringIncomes)
				r.Get("/{id}/rrule", s.handleIncomeRRule)
			})
			r.Post("/recurring/process", s.handleProcessRecurring)

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/categories", s.handleCategoryDistribution)
				r.Get("/income-vs-expenses", s.handleIncomeVsExpenses)
				r.Get("/budget/{categoryID}", s.handleBudgetProgress)
			})
		})
	})
	return r
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"requests":  s.tracer.GetMetrics(),
	})
}

// handleReady runs every dependency check
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for _, c := range s.deps.Checks {
		if err := c.Ping(ctx); err != nil {
			checks[c.Name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// ListenAndServe logs the bound address before serving.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	return s.Server.ListenAndServe()
}
