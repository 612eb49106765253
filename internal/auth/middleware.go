package auth

import (
	"context"
	"net/http"

	"markpad/internal/users"
)

// SessionCookie is the cookie carrying the bearer token.
const SessionCookie = "sessionId"

type ctxKey struct{}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(ctx context.Context) *users.User {
	u, _ := ctx.Value(ctxKey{}).(*users.User)
	return u
}

// Middleware resolves the session cookie and, when it maps to a live
// session, puts the user in the request context. Anonymous requests pass
// through untouched; only a storage failure stops the request.
func Middleware(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			u, err := m.Resolve(r.Context(), cookie.Value)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if u != nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, u))
			}
			next.ServeHTTP(w, r)
		})
	}
}
