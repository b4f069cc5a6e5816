package places

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("place not found")

// Place is a community-owned point on the map that stories attach to.
type Place struct {
	ID          uuid.UUID
	CommunityID uuid.UUID
	Name        string
	Description string
	Region      string
	Latitude    float64
	Longitude   float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Filters struct {
	CommunityID uuid.UUID
	Query       string
	Region      string
	Limit       int
	Offset      int
}

type ListResult struct {
	Places []Place
	Total  int64
}

type Repository interface {
	Create(ctx context.Context, place Place) (Place, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Place, error)
	Update(ctx context.Context, place Place) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters Filters) (ListResult, error)
}
