package stories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/communities"
	"github.com/terrastories/server/internal/domain/ids"
)

// Service enforces community isolation around story CRUD. The guard needs
// the target community's public flag, so the service resolves communities
// alongside stories.
type Service struct {
	repo        Repository
	communities communities.Repository
	logger      zerolog.Logger
}

func NewService(repo Repository, communityRepo communities.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		communities: communityRepo,
		logger:      logger.With().Str("component", "stories").Logger(),
	}
}

type CreateParams struct {
	CommunityID uuid.UUID
	Title       string
	Description string
	Language    string
	SpeakerIDs  []uuid.UUID
	PlaceIDs    []uuid.UUID
}

type UpdateParams struct {
	Title       *string
	Description *string
	Language    *string
	SpeakerIDs  *[]uuid.UUID
	PlaceIDs    *[]uuid.UUID
}

func (s *Service) target(ctx context.Context, communityID uuid.UUID) (auth.Target, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return auth.Target{}, err
	}
	return auth.Target{CommunityID: community.ID, PublicStories: community.PublicStories}, nil
}

// Create adds a story to a community the session can write to.
func (s *Service) Create(ctx context.Context, session *auth.Session, params CreateParams) (Story, error) {
	target, err := s.target(ctx, params.CommunityID)
	if err != nil {
		return Story{}, err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return Story{}, decision.Err()
	}

	ulid, err := ids.NewULID()
	if err != nil {
		return Story{}, fmt.Errorf("mint story id: %w", err)
	}

	created, err := s.repo.Create(ctx, Story{
		ID:          uuid.New(),
		ULID:        ulid,
		CommunityID: params.CommunityID,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		Language:    params.Language,
		SpeakerIDs:  params.SpeakerIDs,
		PlaceIDs:    params.PlaceIDs,
	})
	if err != nil {
		return Story{}, fmt.Errorf("create story: %w", err)
	}

	s.logger.Info().Str("story", created.ULID).Str("community_id", created.CommunityID.String()).Msg("story created")
	return created, nil
}

// Get fetches one story. Cross-community requests are denied unless the
// owning community publishes its stories and the access is read-only.
func (s *Service) Get(ctx context.Context, session *auth.Session, ulid string) (*Story, error) {
	story, err := s.repo.GetByULID(ctx, ulid)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, story.CommunityID)
	if err != nil {
		return nil, err
	}
	if decision := auth.Authorize(session, auth.ActionRead, target); !decision.Allowed {
		return nil, decision.Err()
	}
	return story, nil
}

// List returns one community's stories, guard permitting.
func (s *Service) List(ctx context.Context, session *auth.Session, filters Filters) (ListResult, error) {
	target, err := s.target(ctx, filters.CommunityID)
	if err != nil {
		return ListResult{}, err
	}
	if decision := auth.Authorize(session, auth.ActionRead, target); !decision.Allowed {
		return ListResult{}, decision.Err()
	}

	if filters.Limit <= 0 {
		filters.Limit = 50
	}
	return s.repo.List(ctx, filters)
}

// Update modifies a story in place.
func (s *Service) Update(ctx context.Context, session *auth.Session, ulid string, params UpdateParams) (*Story, error) {
	story, err := s.repo.GetByULID(ctx, ulid)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, story.CommunityID)
	if err != nil {
		return nil, err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return nil, decision.Err()
	}

	if params.Title != nil {
		story.Title = strings.TrimSpace(*params.Title)
	}
	if params.Description != nil {
		story.Description = *params.Description
	}
	if params.Language != nil {
		story.Language = *params.Language
	}
	if params.SpeakerIDs != nil {
		story.SpeakerIDs = *params.SpeakerIDs
	}
	if params.PlaceIDs != nil {
		story.PlaceIDs = *params.PlaceIDs
	}

	if err := s.repo.Update(ctx, *story); err != nil {
		return nil, fmt.Errorf("update story: %w", err)
	}
	return story, nil
}

// Delete removes a story.
func (s *Service) Delete(ctx context.Context, session *auth.Session, ulid string) (*Story, error) {
	story, err := s.repo.GetByULID(ctx, ulid)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, story.CommunityID)
	if err != nil {
		return nil, err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return nil, decision.Err()
	}

	if err := s.repo.Delete(ctx, story.ID); err != nil {
		return nil, fmt.Errorf("delete story: %w", err)
	}
	s.logger.Info().Str("story", story.ULID).Msg("story deleted")
	return story, nil
}

// SetMediaPath records the storage path of a story's media file. An empty
// path detaches the media.
func (s *Service) SetMediaPath(ctx context.Context, session *auth.Session, ulid, mediaPath string) (*Story, error) {
	story, err := s.repo.GetByULID(ctx, ulid)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, story.CommunityID)
	if err != nil {
		return nil, err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return nil, decision.Err()
	}

	story.MediaPath = mediaPath
	if err := s.repo.Update(ctx, *story); err != nil {
		return nil, fmt.Errorf("update story media: %w", err)
	}
	return story, nil
}
