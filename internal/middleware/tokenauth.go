// Package middleware provides HTTP middlewares for authentication and
// request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier validates a session token and returns the username it
// was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenAuth resolves the caller's identity from a bearer token and
// stores it in the request context. Requests without a valid token
// proceed as anonymous; handlers that require an identity reject those
// themselves.
func TokenAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(header, "Bearer "); ok {
				if username, err := tokens.Verify(token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), userKey, username))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts the authenticated username from the
// request context. Returns an empty string for anonymous requests.
func GetUserFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}
