package stories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("story not found")

// Story is community-owned narrative content. Speakers and places are
// association lists resolved by the repository.
type Story struct {
	ID          uuid.UUID
	ULID        string
	CommunityID uuid.UUID
	Title       string
	Description string
	Language    string
	MediaPath   string
	SpeakerIDs  []uuid.UUID
	PlaceIDs    []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Filters struct {
	CommunityID uuid.UUID
	Query       string
	Language    string
	Limit       int
	Offset      int
}

type ListResult struct {
	Stories []Story
	Total   int64
}

type Repository interface {
	Create(ctx context.Context, story Story) (Story, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Story, error)
	GetByULID(ctx context.Context, ulid string) (*Story, error)
	Update(ctx context.Context, story Story) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters Filters) (ListResult, error)
}
