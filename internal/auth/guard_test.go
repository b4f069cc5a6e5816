package auth

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func memberSession(role Role, communityID uuid.UUID) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      uuid.New(),
		Email:       fmt.Sprintf("%s@example.org", role),
		Role:        role,
		CommunityID: &communityID,
	}
}

func superAdminSession() *Session {
	return &Session{
		ID:     uuid.NewString(),
		UserID: uuid.New(),
		Email:  "root@example.org",
		Role:   RoleSuperAdmin,
	}
}

func TestAuthorizeCapabilityTableExhaustive(t *testing.T) {
	own := uuid.New()
	other := uuid.New()

	for _, role := range Roles {
		for _, action := range Actions {
			var session *Session
			if role == RoleSuperAdmin {
				session = superAdminSession()
			} else {
				session = memberSession(role, own)
			}

			scope := Capability(role, action)

			t.Run(fmt.Sprintf("%s/%s/own", role, action), func(t *testing.T) {
				decision := Authorize(session, action, Target{CommunityID: own})
				require.Equal(t, scope != ScopeNone, decision.Allowed)
			})

			t.Run(fmt.Sprintf("%s/%s/other", role, action), func(t *testing.T) {
				decision := Authorize(session, action, Target{CommunityID: other})
				require.Equal(t, scope == ScopeGlobal, decision.Allowed)
				if !decision.Allowed && scope == ScopeCommunity {
					require.Equal(t, ReasonCrossCommunity, decision.Reason)
				}
			})
		}
	}
}

func TestAuthorizeNonSuperDeniedAcrossCommunities(t *testing.T) {
	own := uuid.New()
	other := uuid.New()

	for _, role := range []Role{RoleAdmin, RoleEditor, RoleViewer} {
		session := memberSession(role, own)
		decision := Authorize(session, ActionRead, Target{CommunityID: other})
		require.False(t, decision.Allowed, "role %s must not read another community", role)
		require.Equal(t, ReasonCrossCommunity, decision.Reason)
	}
}

func TestAuthorizeSuperAdminUnconditional(t *testing.T) {
	session := superAdminSession()
	for _, action := range Actions {
		decision := Authorize(session, action, Target{CommunityID: uuid.New()})
		require.True(t, decision.Allowed, "super_admin denied %s", action)
	}
}

func TestAuthorizeAnonymous(t *testing.T) {
	target := Target{CommunityID: uuid.New()}

	decision := Authorize(nil, ActionRead, target)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonNotPublic, decision.Reason)

	target.PublicStories = true
	decision = Authorize(nil, ActionRead, target)
	require.True(t, decision.Allowed)

	for _, action := range []Action{ActionWrite, ActionManageMembers, ActionManageCommunity, ActionViewMetrics} {
		decision = Authorize(nil, action, target)
		require.False(t, decision.Allowed)
		require.Equal(t, ReasonAuthRequired, decision.Reason)
	}
}

func TestAuthorizeCrossCommunityPublicRead(t *testing.T) {
	// Admin from community A reading a story in community B: denied while
	// B is private, allowed once B publishes its stories.
	admin := memberSession(RoleAdmin, uuid.New())
	target := Target{CommunityID: uuid.New()}

	decision := Authorize(admin, ActionRead, target)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonCrossCommunity, decision.Reason)

	target.PublicStories = true
	require.True(t, Authorize(admin, ActionRead, target).Allowed)

	// Writes stay denied regardless of the public flag.
	require.False(t, Authorize(admin, ActionWrite, target).Allowed)
}

func TestAuthorizeUserCreationEscalation(t *testing.T) {
	communityID := uuid.New()
	admin := memberSession(RoleAdmin, communityID)

	decision := AuthorizeUserCreation(admin, RoleSuperAdmin, &communityID)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonRoleEscalation, decision.Reason)

	require.True(t, AuthorizeUserCreation(admin, RoleAdmin, &communityID).Allowed)
	require.True(t, AuthorizeUserCreation(admin, RoleEditor, &communityID).Allowed)
	require.True(t, AuthorizeUserCreation(admin, RoleViewer, &communityID).Allowed)
}

func TestAuthorizeUserCreationCommunityMismatch(t *testing.T) {
	own := uuid.New()
	other := uuid.New()
	admin := memberSession(RoleAdmin, own)

	decision := AuthorizeUserCreation(admin, RoleEditor, &other)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonCommunityBound, decision.Reason)

	decision = AuthorizeUserCreation(admin, RoleEditor, nil)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonCommunityBound, decision.Reason)
}

func TestAuthorizeUserCreationSuperAdmin(t *testing.T) {
	root := superAdminSession()
	communityID := uuid.New()

	// Super admin creates an admin bound to any community, despite having
	// no community of its own.
	require.True(t, AuthorizeUserCreation(root, RoleAdmin, &communityID).Allowed)
	require.True(t, AuthorizeUserCreation(root, RoleSuperAdmin, nil).Allowed)

	// But a community-less non-super user would break the tenancy invariant.
	decision := AuthorizeUserCreation(root, RoleEditor, nil)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonCommunityBound, decision.Reason)
}

func TestAuthorizeUserCreationDeniedRoles(t *testing.T) {
	communityID := uuid.New()
	for _, role := range []Role{RoleEditor, RoleViewer} {
		actor := memberSession(role, communityID)
		decision := AuthorizeUserCreation(actor, RoleViewer, &communityID)
		require.False(t, decision.Allowed)
		require.Equal(t, ReasonInsufficient, decision.Reason)
	}

	decision := AuthorizeUserCreation(nil, RoleViewer, &communityID)
	require.False(t, decision.Allowed)
	require.Equal(t, ReasonAuthRequired, decision.Reason)
}

func TestNormalizeRole(t *testing.T) {
	role, ok := NormalizeRole("  Admin ")
	require.True(t, ok)
	require.Equal(t, RoleAdmin, role)

	_, ok = NormalizeRole("manager")
	require.False(t, ok)
}
