package domain

import "strings"

// Role is an org-level role.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// ManagerRoles may list members and invite.
var ManagerRoles = []Role{RoleOwner, RoleAdmin}

// ParseRole accepts any casing; the empty string yields RoleMember.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleMember, "":
		return RoleMember, true
	default:
		return "", false
	}
}

// Rank orders roles by privilege; unknown roles rank lowest.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
