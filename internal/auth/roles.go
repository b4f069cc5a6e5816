package auth

import "strings"

// Role is the closed set of privilege levels a user can hold. Every role
// except RoleSuperAdmin is bound to exactly one community.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleViewer     Role = "viewer"
)

// Roles lists every valid role, ordered from most to least privileged.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleEditor, RoleViewer}

// privilege ranks roles for escalation checks. Higher means more privileged.
var privilege = map[Role]int{
	RoleViewer:     0,
	RoleEditor:     1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

func NormalizeRole(role string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleSuperAdmin):
		return RoleSuperAdmin, true
	case string(RoleAdmin):
		return RoleAdmin, true
	case string(RoleEditor):
		return RoleEditor, true
	case string(RoleViewer):
		return RoleViewer, true
	default:
		return "", false
	}
}

// Outranks reports whether r carries strictly more privilege than other.
func (r Role) Outranks(other Role) bool {
	return privilege[r] > privilege[other]
}

// Action is the closed vocabulary of things a request can ask to do.
type Action string

const (
	// ActionRead covers read-only access to community content
	// (stories, speakers, places, community profile).
	ActionRead Action = "read"
	// ActionWrite covers create/update/delete of community content.
	ActionWrite Action = "write"
	// ActionManageMembers covers user CRUD within a community.
	ActionManageMembers Action = "manage_members"
	// ActionManageCommunity covers community settings changes.
	ActionManageCommunity Action = "manage_community"
	// ActionViewMetrics covers the admin metrics endpoints.
	ActionViewMetrics Action = "view_metrics"
)

// Actions lists the full action vocabulary.
var Actions = []Action{ActionRead, ActionWrite, ActionManageMembers, ActionManageCommunity, ActionViewMetrics}

// ReadOnly reports whether the action never mutates state. Only read-only
// actions are ever available to anonymous callers.
func (a Action) ReadOnly() bool {
	return a == ActionRead
}

// Scope bounds where a role may perform an action.
type Scope int

const (
	// ScopeNone denies the action outright.
	ScopeNone Scope = iota
	// ScopeCommunity allows the action inside the session's own community.
	ScopeCommunity
	// ScopeGlobal allows the action for any community.
	ScopeGlobal
)

// capabilities is the role/action/scope table governing every authenticated
// request. Anything absent from the table is denied.
var capabilities = map[Role]map[Action]Scope{
	RoleSuperAdmin: {
		ActionRead:            ScopeGlobal,
		ActionWrite:           ScopeGlobal,
		ActionManageMembers:   ScopeGlobal,
		ActionManageCommunity: ScopeGlobal,
		ActionViewMetrics:     ScopeGlobal,
	},
	RoleAdmin: {
		ActionRead:            ScopeCommunity,
		ActionWrite:           ScopeCommunity,
		ActionManageMembers:   ScopeCommunity,
		ActionManageCommunity: ScopeCommunity,
		ActionViewMetrics:     ScopeCommunity,
	},
	RoleEditor: {
		ActionRead:  ScopeCommunity,
		ActionWrite: ScopeCommunity,
	},
	RoleViewer: {
		ActionRead: ScopeCommunity,
	},
}

// Capability returns the scope granted to role for action.
func Capability(role Role, action Action) Scope {
	grants, ok := capabilities[role]
	if !ok {
		return ScopeNone
	}
	return grants[action]
}
