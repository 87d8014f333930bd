package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"walletguru/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
)

// Middleware assigns request IDs, attaches a request-scoped logger to the
// context and logs every completed request.
type Middleware struct {
	logger *log.Logger

	totalRequests atomic.Int64
	lastDuration  atomic.Int64 // microseconds
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests    int64 `json:"totalRequests"`
	LastResponseTime int64 `json:"lastResponseTimeMicros"`
}

func NewMiddleware(logger *log.Logger) *Middleware {
	return &Middleware{logger: logger.WithComponent(log.ComponentHTTP)}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// chi's RequestID middleware runs first when mounted
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		reqLogger := m.logger.With(
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
		)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, reqLogger)
		r = r.WithContext(ctx)

		m.totalRequests.Add(1)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		m.lastDuration.Store(duration.Microseconds())

		level := slog.LevelInfo
		if status >= 400 && status < 500 {
			level = slog.LevelWarn
		} else if status >= 500 {
			level = slog.LevelError
		}
		reqLogger.Log(ctx, level, "HTTP request completed",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldStatusCode, status,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, r.RemoteAddr,
			log.FieldUserAgent, r.UserAgent(),
			"query", r.URL.RawQuery,
			"bytes", ww.BytesWritten())
	})
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:    m.totalRequests.Load(),
		LastResponseTime: m.lastDuration.Load(),
	}
}
