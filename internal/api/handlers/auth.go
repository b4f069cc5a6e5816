package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/terrastories/server/internal/api/middleware"
	"github.com/terrastories/server/internal/api/respond"
	"github.com/terrastories/server/internal/audit"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/users"
)

// AuthHandler serves login, logout, and the current-session endpoint.
type AuthHandler struct {
	users    *users.Service
	sessions *auth.SessionManager
	audit    *audit.Logger
}

func NewAuthHandler(userService *users.Service, sessionManager *auth.SessionManager, auditLogger *audit.Logger) *AuthHandler {
	return &AuthHandler{users: userService, sessions: sessionManager, audit: auditLogger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	UserID      string     `json:"userId"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	CommunityID *uuid.UUID `json:"communityId"`
	ExpiresAt   time.Time  `json:"expiresAt"`
}

func newSessionResponse(session *auth.Session) sessionResponse {
	return sessionResponse{
		UserID:      session.UserID.String(),
		Email:       session.Email,
		Role:        string(session.Role),
		CommunityID: session.CommunityID,
		ExpiresAt:   session.ExpiresAt,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := actorFrom(r)
	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.audit.Record(audit.AuthEntry(audit.VerbLogin, actor, false, "invalid credentials", map[string]string{"email": req.Email}))
		respond.Error(w, r, http.StatusUnauthorized, "invalid email or password", err, nil)
		return
	}

	session, cookie, err := h.sessions.Issue(r.Context(), user.ID, user.Email, user.Role, user.CommunityID)
	if err != nil {
		respond.Internal(w, r, err)
		return
	}

	actor.UserID = user.ID.String()
	actor.Email = user.Email
	h.audit.Record(audit.AuthEntry(audit.VerbLogin, actor, true, "", nil))

	http.SetCookie(w, cookie)
	respond.Data(w, http.StatusOK, newSessionResponse(session))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil {
		respond.Unauthorized(w, r, nil)
		return
	}

	cookie, err := h.sessions.Destroy(r.Context(), session)
	if err != nil {
		respond.Internal(w, r, err)
		return
	}

	h.audit.Record(audit.AuthEntry(audit.VerbLogout, actorFrom(r), true, "", nil))

	http.SetCookie(w, cookie)
	respond.Data(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the current session, plus a CSRF token for clients that need
// to make state-changing requests.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	if session == nil {
		respond.Unauthorized(w, r, nil)
		return
	}
	if token := middleware.CSRFToken(r); token != "" {
		w.Header().Set("X-CSRF-Token", token)
	}
	respond.Data(w, http.StatusOK, newSessionResponse(session))
}
