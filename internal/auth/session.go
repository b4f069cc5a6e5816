package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the session identity. Absence or
// invalidity of the cookie implies anonymous, public-only access.
const SessionCookieName = "sessionId"

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists sessions for the lifetime of a login.
type SessionRepository interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionManager issues, resolves, and destroys cookie-backed sessions.
type SessionManager struct {
	repo   SessionRepository
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionManager(repo SessionRepository, ttl time.Duration, secureCookies bool) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{repo: repo, ttl: ttl, secure: secureCookies, now: time.Now}
}

// Issue creates a session for an authenticated user and returns it together
// with the cookie the response should carry.
func (m *SessionManager) Issue(ctx context.Context, userID uuid.UUID, email string, role Role, communityID *uuid.UUID) (*Session, *http.Cookie, error) {
	now := m.now().UTC()
	session := Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Email:       email,
		Role:        role,
		CommunityID: communityID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}
	if err := m.repo.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	return &session, m.cookie(session.ID, session.ExpiresAt), nil
}

// Resolve looks up the session named by the request cookie. A missing,
// unknown, or expired cookie resolves to (nil, nil): the caller proceeds
// anonymously and the guard decides what that is allowed to see.
func (m *SessionManager) Resolve(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	session, err := m.repo.GetByID(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if session.Expired(m.now().UTC()) {
		_ = m.repo.Delete(ctx, session.ID)
		return nil, nil
	}
	return session, nil
}

// Destroy removes the session and returns an expired cookie that clears the
// client's copy.
func (m *SessionManager) Destroy(ctx context.Context, session *Session) (*http.Cookie, error) {
	if session != nil {
		if err := m.repo.Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("destroy session: %w", err)
		}
	}
	return m.cookie("", time.Unix(0, 0)), nil
}

// PurgeExpired deletes expired sessions; called from the cleanup command.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now().UTC())
}

func (m *SessionManager) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
