package communities

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/terrastories/server/internal/audit"
	"github.com/terrastories/server/internal/auth"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Service orchestrates community CRUD. Community management is an admin
// surface: every decision outcome is audited.
type Service struct {
	repo   Repository
	audit  *audit.Logger
	logger zerolog.Logger
}

func NewService(repo Repository, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		audit:  auditLogger,
		logger: logger.With().Str("component", "communities").Logger(),
	}
}

type CreateParams struct {
	Name          string
	Slug          string
	Locale        string
	PublicStories bool
}

type UpdateParams struct {
	Name          *string
	Locale        *string
	PublicStories *bool
	IsActive      *bool
}

// Create provisions a new community. Only super admins hold global
// community management scope, so tenants cannot mint tenants.
func (s *Service) Create(ctx context.Context, session *auth.Session, actor audit.Actor, params CreateParams) (Community, error) {
	if session == nil {
		return Community{}, &auth.DeniedError{Reason: auth.ReasonAuthRequired}
	}
	if auth.Capability(session.Role, auth.ActionManageCommunity) != auth.ScopeGlobal {
		s.audit.Record(audit.CommunityEntry(audit.VerbCreate, "", actor, false, auth.ReasonInsufficient, map[string]string{"slug": params.Slug}))
		return Community{}, &auth.DeniedError{Reason: auth.ReasonInsufficient}
	}

	slug := strings.ToLower(strings.TrimSpace(params.Slug))
	if !slugRegex.MatchString(slug) {
		return Community{}, fmt.Errorf("%w: %q", ErrInvalidSlug, params.Slug)
	}

	locale := params.Locale
	if locale == "" {
		locale = "en"
	}

	created, err := s.repo.Create(ctx, Community{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(params.Name),
		Slug:          slug,
		Locale:        locale,
		PublicStories: params.PublicStories,
		IsActive:      true,
	})
	if err != nil {
		s.audit.Record(audit.CommunityEntry(audit.VerbCreate, "", actor, false, err.Error(), map[string]string{"slug": slug}))
		return Community{}, fmt.Errorf("create community: %w", err)
	}

	s.audit.Record(audit.CommunityEntry(audit.VerbCreate, created.ID.String(), actor, true, "", map[string]string{
		"name": created.Name,
		"slug": created.Slug,
	}))
	s.logger.Info().Str("community_id", created.ID.String()).Str("slug", created.Slug).Msg("community created")
	return created, nil
}

// Get returns a community the session is allowed to see.
func (s *Service) Get(ctx context.Context, session *auth.Session, id uuid.UUID) (*Community, error) {
	community, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	decision := auth.Authorize(session, auth.ActionRead, auth.Target{
		CommunityID:   community.ID,
		PublicStories: community.PublicStories,
	})
	if !decision.Allowed {
		return nil, decision.Err()
	}
	return community, nil
}

// List returns communities visible to the session: all of them for super
// admins, the session's own community for members, and only publicly
// readable communities for anonymous callers.
func (s *Service) List(ctx context.Context, session *auth.Session, filters Filters) (ListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	result, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, fmt.Errorf("list communities: %w", err)
	}

	if session != nil && session.Role == auth.RoleSuperAdmin {
		return result, nil
	}

	visible := make([]Community, 0, len(result.Communities))
	for _, community := range result.Communities {
		target := auth.Target{CommunityID: community.ID, PublicStories: community.PublicStories}
		if auth.Authorize(session, auth.ActionRead, target).Allowed {
			visible = append(visible, community)
		}
	}
	return ListResult{Communities: visible, Total: int64(len(visible))}, nil
}

// Update changes community settings. Super admins may update any community,
// admins only their own.
func (s *Service) Update(ctx context.Context, session *auth.Session, actor audit.Actor, id uuid.UUID, params UpdateParams) (*Community, error) {
	community, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := auth.Authorize(session, auth.ActionManageCommunity, auth.Target{CommunityID: community.ID})
	if !decision.Allowed {
		s.audit.Record(audit.CommunityEntry(audit.VerbUpdate, id.String(), actor, false, decision.Reason, nil))
		return nil, decision.Err()
	}

	if params.Name != nil {
		community.Name = strings.TrimSpace(*params.Name)
	}
	if params.Locale != nil {
		community.Locale = *params.Locale
	}
	if params.PublicStories != nil {
		community.PublicStories = *params.PublicStories
	}
	if params.IsActive != nil {
		// Deactivation is reserved for super admins.
		if session.Role != auth.RoleSuperAdmin {
			s.audit.Record(audit.CommunityEntry(audit.VerbUpdate, id.String(), actor, false, auth.ReasonInsufficient, nil))
			return nil, &auth.DeniedError{Reason: auth.ReasonInsufficient}
		}
		community.IsActive = *params.IsActive
	}

	if err := s.repo.Update(ctx, *community); err != nil {
		s.audit.Record(audit.CommunityEntry(audit.VerbUpdate, id.String(), actor, false, err.Error(), nil))
		return nil, fmt.Errorf("update community: %w", err)
	}

	s.audit.Record(audit.CommunityEntry(audit.VerbUpdate, id.String(), actor, true, "", map[string]string{
		"name": community.Name,
		"slug": community.Slug,
	}))
	return community, nil
}

// Delete removes a community. Super admin only.
func (s *Service) Delete(ctx context.Context, session *auth.Session, actor audit.Actor, id uuid.UUID) error {
	if session == nil || auth.Capability(session.Role, auth.ActionManageCommunity) != auth.ScopeGlobal {
		reason := auth.ReasonInsufficient
		if session == nil {
			reason = auth.ReasonAuthRequired
		}
		s.audit.Record(audit.CommunityEntry(audit.VerbDelete, id.String(), actor, false, reason, nil))
		return &auth.DeniedError{Reason: reason}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.audit.Record(audit.CommunityEntry(audit.VerbDelete, id.String(), actor, false, err.Error(), nil))
		return err
	}

	s.audit.Record(audit.CommunityEntry(audit.VerbDelete, id.String(), actor, true, "", nil))
	s.logger.Info().Str("community_id", id.String()).Msg("community deleted")
	return nil
}

// GetBySlug is the public lookup used by the read-only endpoints.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Community, error) {
	return s.repo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}
