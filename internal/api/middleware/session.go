package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/auth"
)

const sessionKey contextKey = "session"

// ResolveSession looks up the session cookie once per request and stores the
// result in the context. A missing, unknown, or expired cookie leaves the
// request anonymous; it never fails the request.
func ResolveSession(manager *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := manager.Resolve(r.Context(), r)
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("session lookup failed")
			}
			if session != nil {
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a context carrying session.
func WithSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFrom returns the resolved session, or nil for anonymous requests.
func SessionFrom(ctx context.Context) *auth.Session {
	if session, ok := ctx.Value(sessionKey).(*auth.Session); ok {
		return session
	}
	return nil
}

// RequireSession rejects anonymous requests with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()) == nil {
			respond.Unauthorized(w, r, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose session role is below the minimum:
// 401 when anonymous, 403 when authenticated but outranked.
func RequireRole(minimum auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFrom(r.Context())
			if session == nil {
				respond.Unauthorized(w, r, nil)
				return
			}
			if minimum.Outranks(session.Role) {
				respond.Forbidden(w, r, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
