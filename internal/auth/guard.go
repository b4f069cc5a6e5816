package auth

import (
	"time"

	"github.com/google/uuid"
)

// Session is the authenticated identity attached to a request. It is
// created at login, resolved once per request from the session cookie, and
// never mutated afterwards. CommunityID is nil only for super admins.
type Session struct {
	ID          string
	UserID      uuid.UUID
	Email       string
	Role        Role
	CommunityID *uuid.UUID
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Target identifies the community a request wants to touch, along with the
// flag that controls anonymous read access.
type Target struct {
	CommunityID   uuid.UUID
	PublicStories bool
}

// Decision is the outcome of an authorization check. Reason is set only on
// denial and is stable enough to audit against.
type Decision struct {
	Allowed bool
	Reason  string
}

const (
	ReasonAuthRequired   = "authentication required"
	ReasonCrossCommunity = "cross-community access"
	ReasonNotPublic      = "not public"
	ReasonInsufficient   = "insufficient role"
	ReasonRoleEscalation = "role escalation"
	ReasonCommunityBound = "community mismatch"
)

func allow() Decision        { return Decision{Allowed: true} }
func deny(r string) Decision { return Decision{Reason: r} }

// DeniedError carries a Deny outcome through a service call chain so the
// route layer can map it to 401/403.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "authorization denied: " + e.Reason
}

// Err converts a decision into an error: nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

// Authorize decides whether a session may perform action against target.
// It is a pure function of its inputs: callers audit the outcome.
//
// Anonymous sessions (nil) get read-only access to communities that opted
// into public stories, and nothing else. Authenticated sessions are bounded
// by the capability table: global scope ignores the target community,
// community scope requires the session's own community to match.
func Authorize(session *Session, action Action, target Target) Decision {
	if session == nil {
		if !action.ReadOnly() {
			return deny(ReasonAuthRequired)
		}
		if !target.PublicStories {
			return deny(ReasonNotPublic)
		}
		return allow()
	}

	switch Capability(session.Role, action) {
	case ScopeGlobal:
		return allow()
	case ScopeCommunity:
		if session.CommunityID != nil && *session.CommunityID == target.CommunityID {
			return allow()
		}
		// A member outside their own community is treated like the public:
		// read-only access when the target community publishes its stories.
		if action.ReadOnly() && target.PublicStories {
			return allow()
		}
		return deny(ReasonCrossCommunity)
	default:
		return deny(ReasonInsufficient)
	}
}

// AuthorizeUserCreation applies the role-assignment invariants: an actor may
// never grant more privilege than it holds, super_admin (and the unbound
// nil community that goes with it) can only be granted by a super_admin,
// and non-super admins may only create users inside their own community.
func AuthorizeUserCreation(actor *Session, newRole Role, newCommunityID *uuid.UUID) Decision {
	if actor == nil {
		return deny(ReasonAuthRequired)
	}
	if Capability(actor.Role, ActionManageMembers) == ScopeNone {
		return deny(ReasonInsufficient)
	}
	if newRole.Outranks(actor.Role) {
		return deny(ReasonRoleEscalation)
	}

	if actor.Role == RoleSuperAdmin {
		// Super admins may create any role anywhere, but the community
		// invariant still holds: only super_admin accounts are unbound.
		if newCommunityID == nil && newRole != RoleSuperAdmin {
			return deny(ReasonCommunityBound)
		}
		return allow()
	}

	if newRole == RoleSuperAdmin {
		return deny(ReasonRoleEscalation)
	}
	if newCommunityID == nil || actor.CommunityID == nil || *newCommunityID != *actor.CommunityID {
		return deny(ReasonCommunityBound)
	}
	return allow()
}
