package domain

import "github.com/google/uuid"

// Role is the marketplace role carried by a user and its access token
type Role string

const (
	RoleUser       Role = "user"
	RoleOwner      Role = "owner"
	RoleTenant     Role = "tenant"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// AllRoles lists every role in display order
var AllRoles = []Role{RoleUser, RoleOwner, RoleTenant, RoleAdmin, RoleSuperAdmin}

// MaxRoleNameLength matches the width of the users.role and roles.name columns
const MaxRoleNameLength = 50

// IsBuiltin is true for the five seeded roles
func (r Role) IsBuiltin() bool {
	switch r {
	case RoleUser, RoleOwner, RoleTenant, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsWellFormed reports whether r can name a stored role: lowercase letters, digits and
// underscores, starting with a letter.
func (r Role) IsWellFormed() bool {
	if len(r) == 0 || len(r) > MaxRoleNameLength {
		return false
	}
	for i, ch := range r {
		switch {
		case ch >= 'a' && ch <= 'z':
		case i > 0 && (ch >= '0' && ch <= '9' || ch == '_'):
		default:
			return false
		}
	}
	return true
}

// IsAdmin is true for admin and super_admin
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Actor is the authenticated user performing an action
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}
