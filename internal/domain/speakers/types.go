package speakers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("speaker not found")

// Speaker is a community member whose voice appears in stories.
type Speaker struct {
	ID           uuid.UUID
	CommunityID  uuid.UUID
	Name         string
	Birthdate    *time.Time
	BirthplaceID *uuid.UUID
	PhotoPath    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Filters struct {
	CommunityID uuid.UUID
	Query       string
	Limit       int
	Offset      int
}

type ListResult struct {
	Speakers []Speaker
	Total    int64
}

type Repository interface {
	Create(ctx context.Context, speaker Speaker) (Speaker, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Speaker, error)
	Update(ctx context.Context, speaker Speaker) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters Filters) (ListResult, error)
}
