package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastories/server/internal/audit"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/users"
)

type fakeUserRepo struct {
	byEmail map[string]users.User
}

func (f *fakeUserRepo) Create(_ context.Context, u users.User) (users.User, error) {
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			uu := u
			return &uu, nil
		}
	}
	return nil, users.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, u users.User) error {
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (f *fakeUserRepo) List(_ context.Context, _ users.Filters) (users.ListResult, error) {
	return users.ListResult{}, nil
}

type fakeSessionRepo struct {
	byID map[string]auth.Session
}

func (f *fakeSessionRepo) Create(_ context.Context, s auth.Session) error {
	f.byID[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (*auth.Session, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	return &s, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func newAuthHandler(t *testing.T) (*AuthHandler, *audit.Logger, *[]audit.Entry) {
	t.Helper()
	hash, err := auth.HashPassword("correct horse battery")
	require.NoError(t, err)

	communityID := uuid.New()
	userRepo := &fakeUserRepo{byEmail: map[string]users.User{
		"member@example.org": {
			ID:           uuid.New(),
			Email:        "member@example.org",
			PasswordHash: hash,
			Role:         auth.RoleEditor,
			CommunityID:  &communityID,
		},
	}}

	auditLogger := audit.New(zerolog.Nop())
	var entries []audit.Entry
	auditLogger.AddSink(func(e audit.Entry) error { entries = append(entries, e); return nil })

	userService := users.NewService(userRepo, auditLogger, zerolog.Nop())
	sessions := auth.NewSessionManager(&fakeSessionRepo{byID: map[string]auth.Session{}}, time.Hour, false)
	return NewAuthHandler(userService, sessions, auditLogger), auditLogger, &entries
}

func TestLoginSuccessAuditsFixedAction(t *testing.T) {
	handler, _, entries := newAuthHandler(t)

	body := `{"email":"member@example.org","password":"correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)

	require.Len(t, *entries, 1)
	entry := (*entries)[0]
	assert.Equal(t, "auth.login", entry.Action)
	assert.Equal(t, audit.ResourceAuth, entry.Resource)
	assert.True(t, entry.Success)
	assert.Equal(t, "member@example.org", entry.AdminEmail)
}

func TestLoginFailureAuditsWithoutIdentity(t *testing.T) {
	handler, _, entries := newAuthHandler(t)

	body := `{"email":"member@example.org","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, *entries, 1)
	entry := (*entries)[0]
	assert.Equal(t, "auth.login", entry.Action)
	assert.False(t, entry.Success)
	assert.Equal(t, "invalid credentials", entry.Reason)
	assert.Empty(t, entry.AdminUserID)
	assert.Equal(t, "member@example.org", entry.Details["email"])
}

func TestLogoutAuditsFixedAction(t *testing.T) {
	handler, _, entries := newAuthHandler(t)

	session := roleSession(auth.RoleEditor)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = withSession(req, session)
	rec := httptest.NewRecorder()
	handler.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, *entries, 1)
	entry := (*entries)[0]
	assert.Equal(t, "auth.logout", entry.Action)
	assert.True(t, entry.Success)
	assert.Equal(t, session.UserID.String(), entry.AdminUserID)
}
