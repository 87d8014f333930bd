package security

import (
	"net/http"

	"github.com/unrolled/secure"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	// Production enables HTTPS redirects and HSTS.
	Production bool

	CSP               string
	HSTSMaxAge        int64
	ReferrerPolicy    string
	PermissionsPolicy string
}

// DefaultHeadersConfig returns secure defaults for a JSON API.
func DefaultHeadersConfig(production bool) HeadersConfig {
	return HeadersConfig{
		Production:        production,
		CSP:               "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:        31536000, // 1 year
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "geolocation=(), microphone=(), camera=(), payment=()",
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	secure *secure.Secure
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{secure: secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: config.CSP,
		ReferrerPolicy:        config.ReferrerPolicy,
		PermissionsPolicy:     config.PermissionsPolicy,
		STSSeconds:            config.HSTSMaxAge,
		STSIncludeSubdomains:  true,
		SSLRedirect:           config.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !config.Production,
	})}
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return h.secure.Handler(next)
}
