package handlers

import (
	"errors"
	"net"
	"net/http"

	"github.com/terrastories/server/internal/api/middleware"
	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/audit"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/communities"
	"github.com/terrastories/server/internal/domain/places"
	"github.com/terrastories/server/internal/domain/speakers"
	"github.com/terrastories/server/internal/domain/stories"
	"github.com/terrastories/server/internal/domain/users"
	"github.com/terrastories/server/internal/storage"
)

func sessionFrom(r *http.Request) *auth.Session {
	return middleware.SessionFrom(r.Context())
}

// actorFrom builds the audit identity for the current request.
func actorFrom(r *http.Request) audit.Actor {
	actor := audit.Actor{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if session := sessionFrom(r); session != nil {
		actor.UserID = session.UserID.String()
		actor.Email = session.Email
	}
	return actor
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeDomainError maps service-layer errors onto the response envelope.
// Denials become 401 or 403, typed not-found errors become a generic 404,
// uniqueness conflicts become 409, everything else is a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var denied *auth.DeniedError
	if errors.As(err, &denied) {
		if denied.Reason == auth.ReasonAuthRequired {
			respond.Unauthorized(w, r, err)
			return
		}
		respond.Forbidden(w, r, err)
		return
	}

	switch {
	case errors.Is(err, communities.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, stories.ErrNotFound),
		errors.Is(err, speakers.ErrNotFound),
		errors.Is(err, places.ErrNotFound),
		errors.Is(err, storage.ErrFileNotFound):
		respond.NotFound(w, r, err)
	case errors.Is(err, communities.ErrInvalidSlug):
		respond.Error(w, r, http.StatusBadRequest, "invalid slug", err, nil)
	case errors.Is(err, communities.ErrSlugTaken):
		respond.Conflict(w, r, "slug is already taken", err)
	case errors.Is(err, users.ErrEmailTaken):
		respond.Conflict(w, r, "email is already taken", err)
	default:
		respond.Internal(w, r, err)
	}
}
