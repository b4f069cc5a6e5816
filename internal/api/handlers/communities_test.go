package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastories/server/internal/api/middleware"
	"github.com/terrastories/server/internal/audit"
	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/communities"
)

type fakeCommunityRepo struct {
	byID map[uuid.UUID]communities.Community
}

func (f *fakeCommunityRepo) Create(_ context.Context, c communities.Community) (communities.Community, error) {
	for _, existing := range f.byID {
		if existing.Slug == c.Slug {
			return communities.Community{}, communities.ErrSlugTaken
		}
	}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeCommunityRepo) GetByID(_ context.Context, id uuid.UUID) (*communities.Community, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, communities.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCommunityRepo) GetBySlug(_ context.Context, slug string) (*communities.Community, error) {
	for _, c := range f.byID {
		if c.Slug == slug {
			cc := c
			return &cc, nil
		}
	}
	return nil, communities.ErrNotFound
}

func (f *fakeCommunityRepo) Update(_ context.Context, c communities.Community) error {
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCommunityRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeCommunityRepo) List(_ context.Context, _ communities.Filters) (communities.ListResult, error) {
	var out []communities.Community
	for _, c := range f.byID {
		out = append(out, c)
	}
	return communities.ListResult{Communities: out, Total: int64(len(out))}, nil
}

func newCommunityHandler(t *testing.T) (*CommunityHandler, *fakeCommunityRepo) {
	t.Helper()
	repo := &fakeCommunityRepo{byID: map[uuid.UUID]communities.Community{}}
	service := communities.NewService(repo, audit.New(zerolog.Nop()), zerolog.Nop())
	return NewCommunityHandler(service), repo
}

func withSession(req *http.Request, session *auth.Session) *http.Request {
	return req.WithContext(middleware.WithSession(req.Context(), session))
}

func TestCreateCommunityEnvelope(t *testing.T) {
	handler, _ := newCommunityHandler(t)

	body := `{"name":"Coastal Nation","slug":"coastal-nation","publicStories":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/communities", strings.NewReader(body))
	req = withSession(req, roleSession(auth.RoleSuperAdmin))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data communityResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "coastal-nation", envelope.Data.Slug)
	assert.Equal(t, "en", envelope.Data.Locale)
	assert.True(t, envelope.Data.PublicStories)
}

func TestCreateCommunityValidation(t *testing.T) {
	handler, _ := newCommunityHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/communities", strings.NewReader(`{"slug":"x"}`))
	req = withSession(req, roleSession(auth.RoleSuperAdmin))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Details, "name")
}

func TestCreateCommunityForbiddenForAdmin(t *testing.T) {
	handler, _ := newCommunityHandler(t)

	body := `{"name":"X","slug":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/communities", strings.NewReader(body))
	req = withSession(req, roleSession(auth.RoleAdmin))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateCommunitySlugConflict(t *testing.T) {
	handler, repo := newCommunityHandler(t)
	repo.byID[uuid.New()] = communities.Community{ID: uuid.New(), Slug: "taken"}

	body := `{"name":"X","slug":"taken"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/communities", strings.NewReader(body))
	req = withSession(req, roleSession(auth.RoleSuperAdmin))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetCommunityInvalidID(t *testing.T) {
	handler, _ := newCommunityHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/communities/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCommunityNotFoundIndistinct(t *testing.T) {
	handler, repo := newCommunityHandler(t)
	private := communities.Community{ID: uuid.New(), Slug: "private", IsActive: true}
	repo.byID[private.ID] = private

	req := httptest.NewRequest(http.MethodGet, "/api/v1/communities/"+uuid.NewString(), nil)
	req.SetPathValue("id", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
