package identity

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write the
// session value in a request context.
type contextKey string

const sessionKey contextKey = "session"

// RequireAuth enforces a valid bearer token on protected routes. The parsed
// identity is stored in the request context; missing or invalid tokens stop
// the chain with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := extractSession(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// OptionalAuth extracts the identity when a valid token is present but never
// blocks. Public reads (the discovery query) run through this: anonymous
// callers see only public rows, authenticated callers also their own.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session, err := extractSession(r, tokens); err == nil {
				r = r.WithContext(withSession(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractSession(r *http.Request, tokens *TokenService) (Static, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return Static{}, http.ErrNoCookie
	}
	return tokens.Validate(raw)
}

func withSession(ctx context.Context, session Static) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// FromContext returns the authenticated identity for the request, or
// (Static{}, false) when the request is anonymous.
func FromContext(ctx context.Context) (Static, bool) {
	session, ok := ctx.Value(sessionKey).(Static)
	return session, ok && session.ID != ""
}
