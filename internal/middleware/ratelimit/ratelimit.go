package ratelimit

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// Config holds rate limiter configuration
type Config struct {
	Requests int
	Window   time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{Requests: 120, Window: time.Minute}
}

// Middleware limits requests per client IP. onLimit writes the rejection;
// when nil a plain 429 is sent.
func Middleware(config Config, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if config.Requests < 1 {
		config.Requests = DefaultConfig().Requests
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig().Window
	}
	opts := []httprate.Option{httprate.WithKeyFuncs(httprate.KeyByRealIP)}
	if onLimit != nil {
		opts = append(opts, httprate.WithLimitHandler(onLimit))
	}
	return httprate.Limit(config.Requests, config.Window, opts...)
}
