package http

import (
	"context"
	"net/http"
	"strings"

	"walletguru/internal/auth"
	"walletguru/internal/log"
)

type ctxKey int

const claimsKey ctxKey = iota

// TokenParser verifies bearer tokens. *auth.Tokens implements it.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// requireAuth rejects requests without a valid bearer token and stores the
// caller's claims in the request context.
func requireAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="walletguru"`)
				problem(w, r, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="walletguru", error="invalid_token"`)
				respondError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, claims.UserID()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

// userID returns the authenticated caller. Routes behind requireAuth always
// have one.
func userID(r *http.Request) string {
	if c, ok := claimsFrom(r.Context()); ok {
		return c.UserID()
	}
	return ""
}
