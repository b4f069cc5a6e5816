package places

import (
	"context"
	"fmt"
	"strings"

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
		logger:      logger.With().Str("component", "places").Logger(),
	}
}

type CreateParams struct {
	CommunityID uuid.UUID
	Name        string
	Description string
	Region      string
	Latitude    float64
	Longitude   float64
}

type UpdateParams struct {
	Name        *string
	Description *string
	Region      *string
	Latitude    *float64
	Longitude   *float64
}

// ValidateCoordinates rejects latitudes and longitudes outside WGS84 range.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

func (s *Service) target(ctx context.Context, communityID uuid.UUID) (auth.Target, error) {
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return auth.Target{}, err
	}
	return auth.Target{CommunityID: community.ID, PublicStories: community.PublicStories}, nil
}

func (s *Service) Create(ctx context.Context, session *auth.Session, params CreateParams) (Place, error) {
	if err := ValidateCoordinates(params.Latitude, params.Longitude); err != nil {
		return Place{}, err
	}

	target, err := s.target(ctx, params.CommunityID)
	if err != nil {
		return Place{}, err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return Place{}, decision.Err()
	}

	created, err := s.repo.Create(ctx, Place{
		ID:          uuid.New(),
		CommunityID: params.CommunityID,
		Name:        strings.TrimSpace(params.Name),
		Description: params.Description,
		Region:      params.Region,
		Latitude:    params.Latitude,
		Longitude:   params.Longitude,
	})
	if err != nil {
		return Place{}, fmt.Errorf("create place: %w", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, session *auth.Session, id uuid.UUID) (*Place, error) {
	place, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, place.CommunityID)
	if err != nil {
		return nil, err
	}
	if decision := auth.Authorize(session, auth.ActionRead, target); !decision.Allowed {
		return nil, decision.Err()
	}
	return place, nil
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

func (s *Service) Update(ctx context.Context, session *auth.Session, id uuid.UUID, params UpdateParams) (*Place, error) {
	place, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := s.target(ctx, place.CommunityID)
	if err != nil {
		return nil, err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return nil, decision.Err()
	}

	if params.Name != nil {
		place.Name = strings.TrimSpace(*params.Name)
	}
	if params.Description != nil {
		place.Description = *params.Description
	}
	if params.Region != nil {
		place.Region = *params.Region
	}
	if params.Latitude != nil {
		place.Latitude = *params.Latitude
	}
	if params.Longitude != nil {
		place.Longitude = *params.Longitude
	}
	if err := ValidateCoordinates(place.Latitude, place.Longitude); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, *place); err != nil {
		return nil, fmt.Errorf("update place: %w", err)
	}
	return place, nil
}

func (s *Service) Delete(ctx context.Context, session *auth.Session, id uuid.UUID) error {
	place, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	target, err := s.target(ctx, place.CommunityID)
	if err != nil {
		return err
	}
	if decision := auth.Authorize(session, auth.ActionWrite, target); !decision.Allowed {
		return decision.Err()
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return nil
}
