package places

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/communities"
)

type memPlaceRepo struct {
	byID map[uuid.UUID]Place
}

func (m *memPlaceRepo) Create(_ context.Context, place Place) (Place, error) {
	m.byID[place.ID] = place
	return place, nil
}

func (m *memPlaceRepo) GetByID(_ context.Context, id uuid.UUID) (*Place, error) {
	place, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &place, nil
}

func (m *memPlaceRepo) Update(_ context.Context, place Place) error {
	if _, ok := m.byID[place.ID]; !ok {
		return ErrNotFound
	}
	m.byID[place.ID] = place
	return nil
}

func (m *memPlaceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memPlaceRepo) List(_ context.Context, filters Filters) (ListResult, error) {
	var out []Place
	for _, place := range m.byID {
		if place.CommunityID == filters.CommunityID {
			out = append(out, place)
		}
	}
	return ListResult{Places: out, Total: int64(len(out))}, nil
}

type memCommunityRepo struct {
	byID map[uuid.UUID]communities.Community
}

func (m *memCommunityRepo) Create(_ context.Context, c communities.Community) (communities.Community, error) {
	m.byID[c.ID] = c
	return c, nil
}

func (m *memCommunityRepo) GetByID(_ context.Context, id uuid.UUID) (*communities.Community, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, communities.ErrNotFound
	}
	return &c, nil
}

func (m *memCommunityRepo) GetBySlug(_ context.Context, _ string) (*communities.Community, error) {
	return nil, communities.ErrNotFound
}

func (m *memCommunityRepo) Update(_ context.Context, c communities.Community) error {
	m.byID[c.ID] = c
	return nil
}

func (m *memCommunityRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.byID, id)
	return nil
}

func (m *memCommunityRepo) List(_ context.Context, _ communities.Filters) (communities.ListResult, error) {
	return communities.ListResult{}, nil
}

func newTestService(t *testing.T) (*Service, *memPlaceRepo, communities.Community) {
	t.Helper()
	repo := &memPlaceRepo{byID: map[uuid.UUID]Place{}}
	community := communities.Community{ID: uuid.New(), Slug: "c", IsActive: true}
	commRepo := &memCommunityRepo{byID: map[uuid.UUID]communities.Community{community.ID: community}}
	return NewService(repo, commRepo, zerolog.Nop()), repo, community
}

func editorSession(communityID uuid.UUID) *auth.Session {
	return &auth.Session{
		ID:          uuid.NewString(),
		UserID:      uuid.New(),
		Role:        auth.RoleEditor,
		CommunityID: &communityID,
	}
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(0, 0))
	assert.NoError(t, ValidateCoordinates(90, 180))
	assert.NoError(t, ValidateCoordinates(-90, -180))
	assert.Error(t, ValidateCoordinates(90.0001, 0))
	assert.Error(t, ValidateCoordinates(-91, 0))
	assert.Error(t, ValidateCoordinates(0, 180.5))
	assert.Error(t, ValidateCoordinates(0, -181))
}

func TestCreateRejectsBadCoordinates(t *testing.T) {
	svc, repo, community := newTestService(t)

	_, err := svc.Create(context.Background(), editorSession(community.ID), CreateParams{
		CommunityID: community.ID,
		Name:        "Nowhere",
		Latitude:    123,
		Longitude:   0,
	})
	require.Error(t, err)
	assert.Empty(t, repo.byID)
}

func TestCreateAndUpdate(t *testing.T) {
	svc, _, community := newTestService(t)
	session := editorSession(community.ID)

	created, err := svc.Create(context.Background(), session, CreateParams{
		CommunityID: community.ID,
		Name:        "  River Bend ",
		Region:      "North",
		Latitude:    48.4,
		Longitude:   -123.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "River Bend", created.Name)

	// A partial update still has to leave the pair in range.
	badLat := 95.0
	_, err = svc.Update(context.Background(), session, created.ID, UpdateParams{Latitude: &badLat})
	require.Error(t, err)

	lat := 49.1
	updated, err := svc.Update(context.Background(), session, created.ID, UpdateParams{Latitude: &lat})
	require.NoError(t, err)
	assert.Equal(t, 49.1, updated.Latitude)
	assert.Equal(t, -123.3, updated.Longitude)
}

func TestWriteGuard(t *testing.T) {
	svc, repo, community := newTestService(t)
	place := Place{ID: uuid.New(), CommunityID: community.ID, Name: "Guarded"}
	repo.byID[place.ID] = place

	viewer := &auth.Session{
		ID:          uuid.NewString(),
		UserID:      uuid.New(),
		Role:        auth.RoleViewer,
		CommunityID: &community.ID,
	}

	var denied *auth.DeniedError
	err := svc.Delete(context.Background(), viewer, place.ID)
	require.ErrorAs(t, err, &denied)

	got, err := svc.Get(context.Background(), viewer, place.ID)
	require.NoError(t, err)
	assert.Equal(t, place.ID, got.ID)
}
