package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/terrastories/server/internal/audit"
	"github.com/terrastories/server/internal/auth"
)

// Service handles user management. Role assignment and community binding
// follow the escalation rules in the auth package; every decision outcome
// on this admin surface is audited.
type Service struct {
	repo   Repository
	audit  *audit.Logger
	logger zerolog.Logger
}

func NewService(repo Repository, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		audit:  auditLogger,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

type CreateParams struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        auth.Role
	CommunityID *uuid.UUID
}

type UpdateParams struct {
	FirstName *string
	LastName  *string
	Role      *auth.Role
	Password  *string
}

// Create adds a user. An admin may only create roles at or below its own
// privilege, bound to its own community; only super admins escape either
// constraint.
func (s *Service) Create(ctx context.Context, session *auth.Session, actor audit.Actor, params CreateParams) (User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	// Non-super actors never choose a community: the new user lands in the
	// actor's own.
	communityID := params.CommunityID
	if session != nil && session.Role != auth.RoleSuperAdmin && communityID == nil {
		communityID = session.CommunityID
	}

	decision := auth.AuthorizeUserCreation(session, params.Role, communityID)
	if !decision.Allowed {
		s.audit.Record(audit.UserEntry(audit.VerbCreate, "", actor, false, decision.Reason, map[string]string{
			"email": email,
			"role":  string(params.Role),
		}))
		return User{}, decision.Err()
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return User{}, err
	}

	created, err := s.repo.Create(ctx, User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		Role:         params.Role,
		CommunityID:  communityID,
	})
	if err != nil {
		s.audit.Record(audit.UserEntry(audit.VerbCreate, "", actor, false, err.Error(), map[string]string{"email": email}))
		return User{}, fmt.Errorf("create user: %w", err)
	}

	s.audit.Record(audit.UserEntry(audit.VerbCreate, created.ID.String(), actor, true, "", map[string]string{
		"email": created.Email,
		"role":  string(created.Role),
	}))
	s.logger.Info().Str("user_id", created.ID.String()).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

// Get returns a user visible to the session. Users are only visible inside
// their own community (or globally, for super admins).
func (s *Service) Get(ctx context.Context, session *auth.Session, actor audit.Actor, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := s.authorizeMemberAccess(session, user)
	s.audit.Record(audit.UserEntry(audit.VerbView, id.String(), actor, decision.Allowed, decision.Reason, nil))
	if !decision.Allowed {
		// Out-of-scope reads surface as not found so the existence of users
		// in other communities is not leaked.
		return nil, ErrNotFound
	}
	return user, nil
}

// List returns users in the scope the session can manage.
func (s *Service) List(ctx context.Context, session *auth.Session, filters Filters) (ListResult, error) {
	if session == nil {
		return ListResult{}, &auth.DeniedError{Reason: auth.ReasonAuthRequired}
	}
	if auth.Capability(session.Role, auth.ActionManageMembers) == auth.ScopeNone {
		return ListResult{}, &auth.DeniedError{Reason: auth.ReasonInsufficient}
	}
	if session.Role != auth.RoleSuperAdmin {
		// Member listings are always scoped to the admin's own community.
		filters.CommunityID = session.CommunityID
	}
	if filters.Limit <= 0 {
		filters.Limit = 50
	}
	return s.repo.List(ctx, filters)
}

// Update modifies a user's profile, role, or password.
func (s *Service) Update(ctx context.Context, session *auth.Session, actor audit.Actor, id uuid.UUID, params UpdateParams) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := s.authorizeMemberAccess(session, user)
	if !decision.Allowed {
		s.audit.Record(audit.UserEntry(audit.VerbUpdate, id.String(), actor, false, decision.Reason, nil))
		return nil, ErrNotFound
	}

	if params.Role != nil && *params.Role != user.Role {
		// Role changes replay the creation rules against the new role.
		decision := auth.AuthorizeUserCreation(session, *params.Role, user.CommunityID)
		if !decision.Allowed {
			s.audit.Record(audit.UserEntry(audit.VerbUpdate, id.String(), actor, false, decision.Reason, map[string]string{
				"role": string(*params.Role),
			}))
			return nil, decision.Err()
		}
		user.Role = *params.Role
	}
	if params.FirstName != nil {
		user.FirstName = strings.TrimSpace(*params.FirstName)
	}
	if params.LastName != nil {
		user.LastName = strings.TrimSpace(*params.LastName)
	}
	if params.Password != nil {
		hash, err := auth.HashPassword(*params.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, *user); err != nil {
		s.audit.Record(audit.UserEntry(audit.VerbUpdate, id.String(), actor, false, err.Error(), nil))
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.audit.Record(audit.UserEntry(audit.VerbUpdate, id.String(), actor, true, "", map[string]string{
		"role": string(user.Role),
	}))
	return user, nil
}

// Delete removes a user from the session's manageable scope.
func (s *Service) Delete(ctx context.Context, session *auth.Session, actor audit.Actor, id uuid.UUID) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	decision := s.authorizeMemberAccess(session, user)
	if !decision.Allowed {
		s.audit.Record(audit.UserEntry(audit.VerbDelete, id.String(), actor, false, decision.Reason, nil))
		return ErrNotFound
	}
	if user.Role.Outranks(session.Role) {
		s.audit.Record(audit.UserEntry(audit.VerbDelete, id.String(), actor, false, auth.ReasonRoleEscalation, nil))
		return &auth.DeniedError{Reason: auth.ReasonRoleEscalation}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.audit.Record(audit.UserEntry(audit.VerbDelete, id.String(), actor, false, err.Error(), nil))
		return err
	}

	s.audit.Record(audit.UserEntry(audit.VerbDelete, id.String(), actor, true, "", map[string]string{"email": user.Email}))
	return nil
}

// Authenticate verifies credentials for login. It deliberately returns the
// same error for unknown emails and bad passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrNotFound
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrNotFound
	}
	return user, nil
}

// authorizeMemberAccess checks whether the session may manage the given
// user record: member management scope against the user's community.
func (s *Service) authorizeMemberAccess(session *auth.Session, user *User) auth.Decision {
	if session == nil {
		return auth.Decision{Reason: auth.ReasonAuthRequired}
	}
	switch auth.Capability(session.Role, auth.ActionManageMembers) {
	case auth.ScopeGlobal:
		return auth.Decision{Allowed: true}
	case auth.ScopeCommunity:
		if user.CommunityID != nil && session.CommunityID != nil && *user.CommunityID == *session.CommunityID {
			return auth.Decision{Allowed: true}
		}
		return auth.Decision{Reason: auth.ReasonCrossCommunity}
	default:
		return auth.Decision{Reason: auth.ReasonInsufficient}
	}
}
