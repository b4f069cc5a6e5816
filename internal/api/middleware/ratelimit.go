package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/terrastories/server/internal/config"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	TierMember RateLimitTier = "member"
	TierLogin  RateLimitTier = "login"
)

const rateLimitTierKey contextKey = "rateLimitTier"

func WithRateLimitTier(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), rateLimitTierKey, tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit applies per-client token buckets keyed by tier and remote IP.
// Authenticated sessions get the member tier automatically; login attempts
// are tagged with the aggressive login tier by the router.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			tier := TierPublic
			if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
				tier = value
			} else if SessionFrom(r.Context()) != nil {
				tier = TierMember
			}

			if !store.limiter(tier, clientIP(r)).Allow() {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute map[RateLimitTier]int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		perMinute: map[RateLimitTier]int{
			TierPublic: cfg.PublicPerMinute,
			TierMember: cfg.MemberPerMinute,
			TierLogin:  cfg.LoginPerMinute,
		},
	}
}

func (s *limiterStore) limiter(tier RateLimitTier, ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(tier) + ":" + ip
	entry, ok := s.limiters[key]
	if !ok {
		perMinute := s.perMinute[tier]
		if perMinute <= 0 {
			perMinute = 60
		}
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		}
		s.limiters[key] = entry
	}
	entry.lastSeen = time.Now()

	// Opportunistic cleanup keeps the map from growing unbounded.
	if len(s.limiters) > 10000 {
		cutoff := time.Now().Add(-10 * time.Minute)
		for k, v := range s.limiters {
			if v.lastSeen.Before(cutoff) {
				delete(s.limiters, k)
			}
		}
	}
	return entry.limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
