package speakers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/terrastories/server/internal/auth"
	"github.com/terrastories/server/internal/domain/communities"
)

type Service struct {
	repo        Repository
	communities communities.Repository
	logger      zerolog.Logger
}

func NewService(repo Repository, communityRepo communities.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		communities: communityRepo,
		logger:      logger.With().Str("component", "speakers").Logger(),
	}
}

type CreateParams struct {
	CommunityID  uuid.UUID
	Name         string
	Birthdate    *time.Time
	BirthplaceID *uuid.UUID
}

type UpdateParams struct {
	Name         *string
	Birthdate    *time.Time
	BirthplaceID *uuid.UUID
	PhotoPath    *string
}

func (s *Service) target(ctx context.Context, communityID uuid.UUID) (auth.Target, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return auth.Target{}, err
	}
	return auth.Target{CommunityID: community.ID, PublicStories: community.PublicStories}, nil
}

func (s *Service) Create(ctx context.Context, session *auth.Session, params CreateParams) (Speaker, error) {
	target, err := s.target(ctx, params.CommunityID)
	if err != nil {
		return Speaker{}, err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return Speaker{}, decision.Err()
	}

	created, err := s.repo.Create(ctx, Speaker{
		ID:           uuid.New(),
		CommunityID:  params.CommunityID,
		Name:         strings.TrimSpace(params.Name),
		Birthdate:    params.Birthdate,
		BirthplaceID: params.BirthplaceID,
	})
	if err != nil {
		return Speaker{}, fmt.Errorf("create speaker: %w", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, session *auth.Session, id uuid.UUID) (*Speaker, error) {
	speaker, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, speaker.CommunityID)
	if err != nil {
		return nil, err
	}
	if decision := auth.Authorize(session, auth.ActionRead, target); !decision.Allowed {
		return nil, decision.Err()
	}
	return speaker, nil
}

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

func (s *Service) Update(ctx context.Context, session *auth.Session, id uuid.UUID, params UpdateParams) (*Speaker, error) {
	speaker, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, speaker.CommunityID)
	if err != nil {
		return nil, err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return nil, decision.Err()
	}

	if params.Name != nil {
		speaker.Name = strings.TrimSpace(*params.Name)
	}
	if params.Birthdate != nil {
		speaker.Birthdate = params.Birthdate
	}
	if params.BirthplaceID != nil {
		speaker.BirthplaceID = params.BirthplaceID
	}
	if params.PhotoPath != nil {
		speaker.PhotoPath = *params.PhotoPath
	}

	if err := s.repo.Update(ctx, *speaker); err != nil {
		return nil, fmt.Errorf("update speaker: %w", err)
	}
	return speaker, nil
}

func (s *Service) Delete(ctx context.Context, session *auth.Session, id uuid.UUID) error {
	speaker, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	target, err := s.target(ctx, speaker.CommunityID)
	if err != nil {
		return err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return decision.Err()
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete speaker: %w", err)
	}
	return nil
}
