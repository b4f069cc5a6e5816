package communities

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("community not found")
	ErrSlugTaken   = errors.New("slug is already taken")
	ErrInvalidSlug = errors.New("invalid slug")
)

// Community is the tenant boundary: every non-super_admin user and every
// story, speaker, and place belongs to exactly one community.
type Community struct {
	ID            uuid.UUID
	Name          string
	Slug          string
	Locale        string
	PublicStories bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Filters struct {
	IsActive *bool
	Limit    int
	Offset   int
}

type ListResult struct {
	Communities []Community
	Total       int64
}

type Repository interface {
	Create(ctx context.Context, community Community) (Community, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Community, error)
	GetBySlug(ctx context.Context, slug string) (*Community, error)
	Update(ctx context.Context, community Community) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters Filters) (ListResult, error)
}
