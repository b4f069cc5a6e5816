package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/terrastories/server/internal/api/middleware"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/config"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("middle"), mw("inner"))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "middle", "inner", "handler"}, order)
}

func TestCSRFWhenAuthenticatedSkipsAnonymous(t *testing.T) {
	var protectedCalled bool
	protect := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protectedCalled = true
			next.ServeHTTP(w, r)
		})
	}

	handler := csrfWhenAuthenticated(protect)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// Anonymous requests bypass the protection entirely.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/communities", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, protectedCalled)

	// Authenticated requests go through it.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/communities", nil)
	req = req.WithContext(middleware.WithSession(req.Context(), &auth.Session{
		ID:     uuid.NewString(),
		UserID: uuid.New(),
		Role:   auth.RoleEditor,
	}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, protectedCalled)
}

func TestLoginRateLimitTier(t *testing.T) {
	cfg := config.RateLimitConfig{
		PublicPerMinute: 100,
		MemberPerMinute: 100,
		LoginPerMinute:  1,
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := chain(ok, loginRateLimitTier, middleware.RateLimit(cfg))

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("/api/v1/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, send("/api/v1/auth/login"))

	// The aggressive bucket is scoped to login; other paths keep theirs.
	assert.Equal(t, http.StatusOK, send("/api/v1/auth/logout"))
}
