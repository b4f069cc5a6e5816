// Package api assembles the HTTP surface: middleware chain, route table,
// and the handlers behind them.
package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/terrastories/server/internal/api/handlers"
	"github.com/terrastories/server/internal/api/middleware"
	"github.com/terrastories/server/internal/audit"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/config"
	"github.com/terrastories/server/internal/domain/communities"
	"github.com/terrastories/server/internal/domain/places"
	"github.com/terrastories/server/internal/domain/speakers"
	"github.com/terrastories/server/internal/domain/stories"
	"github.com/terrastories/server/internal/domain/users"
	"github.com/terrastories/server/internal/media"
	"github.com/terrastories/server/internal/metrics"
)

// Dependencies carries everything the router needs. Construction and
// lifecycle of these belong to the serve command, not the router.
type Dependencies struct {
	Config   config.Config
	Logger   zerolog.Logger
	Pool     *pgxpool.Pool
	Sessions *auth.SessionManager
	Audit    *audit.Logger

	Communities *communities.Service
	Users       *users.Service
	Stories     *stories.Service
	Speakers    *speakers.Service
	Places      *places.Service
	Media       *media.Service

	FileOps *metrics.FileOpsCollector

	Version string
	Commit  string
}

// NewRouter builds the full route table wrapped in the shared middleware
// chain. Per-route concerns (rate limit tiers, CSRF, body size) are applied
// here so handlers stay transport-agnostic.
func NewRouter(deps Dependencies) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions, deps.Audit)
	communityHandler := handlers.NewCommunityHandler(deps.Communities)
	userHandler := handlers.NewUserHandler(deps.Users)
	storyHandler := handlers.NewStoryHandler(deps.Stories, deps.Communities)
	speakerHandler := handlers.NewSpeakerHandler(deps.Speakers)
	placeHandler := handlers.NewPlaceHandler(deps.Places)
	mediaHandler := handlers.NewMediaHandler(deps.Stories, deps.Media)
	fileOpsHandler := handlers.NewFileOpsHandler(deps.FileOps)
	healthHandler := handlers.NewHealthHandler(deps.Pool, deps.Version, deps.Commit)

	csrf := csrfWhenAuthenticated(middleware.CSRFProtection(
		[]byte(deps.Config.Sessions.CSRFKey),
		deps.Config.Sessions.SecureCookies,
	))
	body := middleware.RequestSize(middleware.DefaultMaxBodySize)
	mediaBody := middleware.RequestSize(middleware.MediaMaxBodySize)

	// read: guard decisions happen in the services, so no session gate here.
	read := func(h http.HandlerFunc) http.Handler { return csrf(h) }
	// write: CSRF plus the default body cap. Authorization still belongs to
	// the services so denials carry the right status and audit trail.
	write := func(h http.HandlerFunc) http.Handler { return csrf(body(h)) }

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler.Liveness))
	mux.Handle("GET /readyz", http.HandlerFunc(healthHandler.Readiness))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("POST /api/v1/auth/login", body(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/v1/auth/logout", write(authHandler.Logout))
	mux.Handle("GET /api/v1/auth/me", csrf(middleware.RequireSession(http.HandlerFunc(authHandler.Me))))

	// Anonymous access to stories of communities that opted in. The slug
	// lookup plus the guard hide everything else.
	mux.Handle("GET /api/v1/public/communities/{slug}/stories", http.HandlerFunc(storyHandler.ListPublic))

	mux.Handle("POST /api/v1/communities", write(communityHandler.Create))
	mux.Handle("GET /api/v1/communities", read(communityHandler.List))
	mux.Handle("GET /api/v1/communities/{id}", read(communityHandler.Get))
	mux.Handle("PATCH /api/v1/communities/{id}", write(communityHandler.Update))
	mux.Handle("DELETE /api/v1/communities/{id}", write(communityHandler.Delete))

	mux.Handle("POST /api/v1/users", write(userHandler.Create))
	mux.Handle("GET /api/v1/users", read(userHandler.List))
	mux.Handle("GET /api/v1/users/{id}", read(userHandler.Get))
	mux.Handle("PATCH /api/v1/users/{id}", write(userHandler.Update))
	mux.Handle("DELETE /api/v1/users/{id}", write(userHandler.Delete))

	mux.Handle("POST /api/v1/communities/{communityId}/stories", write(storyHandler.Create))
	mux.Handle("GET /api/v1/communities/{communityId}/stories", read(storyHandler.List))
	mux.Handle("GET /api/v1/stories/{ulid}", read(storyHandler.Get))
	mux.Handle("PATCH /api/v1/stories/{ulid}", write(storyHandler.Update))
	mux.Handle("DELETE /api/v1/stories/{ulid}", write(storyHandler.Delete))

	mux.Handle("POST /api/v1/communities/{communityId}/speakers", write(speakerHandler.Create))
	mux.Handle("GET /api/v1/communities/{communityId}/speakers", read(speakerHandler.List))
	mux.Handle("GET /api/v1/speakers/{id}", read(speakerHandler.Get))
	mux.Handle("PATCH /api/v1/speakers/{id}", write(speakerHandler.Update))
	mux.Handle("DELETE /api/v1/speakers/{id}", write(speakerHandler.Delete))

	mux.Handle("POST /api/v1/communities/{communityId}/places", write(placeHandler.Create))
	mux.Handle("GET /api/v1/communities/{communityId}/places", read(placeHandler.List))
	mux.Handle("GET /api/v1/places/{id}", read(placeHandler.Get))
	mux.Handle("PATCH /api/v1/places/{id}", write(placeHandler.Update))
	mux.Handle("DELETE /api/v1/places/{id}", write(placeHandler.Delete))

	mux.Handle("POST /api/v1/stories/{ulid}/media", csrf(mediaBody(http.HandlerFunc(mediaHandler.Upload))))
	mux.Handle("GET /api/v1/stories/{ulid}/media", http.HandlerFunc(mediaHandler.Download))
	mux.Handle("DELETE /api/v1/stories/{ulid}/media", write(mediaHandler.Delete))

	mux.Handle("GET /api/v1/admin/file-operations", http.HandlerFunc(fileOpsHandler.Get))

	return chain(mux,
		middleware.CorrelationID(deps.Logger),
		middleware.SecurityHeaders(deps.Config.Sessions.SecureCookies),
		middleware.CORS(deps.Config.CORS, deps.Logger),
		metrics.HTTPMiddleware,
		middleware.ResolveSession(deps.Sessions),
		middleware.RequestLogging(deps.Logger),
		loginRateLimitTier,
		middleware.RateLimit(deps.Config.RateLimit),
	)
}

// loginRateLimitTier tags login attempts before the limiter picks a bucket.
// Routing has not happened yet at this point in the chain, so the path is
// matched directly.
func loginRateLimitTier(next http.Handler) http.Handler {
	tagged := middleware.WithRateLimitTier(middleware.TierLogin)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/v1/auth/login" {
			tagged.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// chain wraps handler so the first middleware listed is the outermost.
func chain(handler http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// csrfWhenAuthenticated applies CSRF protection only to requests that carry
// a resolved session. Anonymous requests have no ambient credential to
// forge, and gating them here would turn the guards' 401s into 403s.
func csrfWhenAuthenticated(protect func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if middleware.SessionFrom(r.Context()) == nil {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}
}
