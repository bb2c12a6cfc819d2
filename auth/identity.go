package auth

// Role is one entry of the fixed role vocabulary.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEditor        Role = "editor"
	RoleAgent         Role = "agent"
	RoleAgency        Role = "agency"
	RoleBuyer         Role = "buyer"
	RoleSubscriber    Role = "subscriber"
)

// Identity represents an authenticated principal.
type Identity struct {
	// ID is the principal's user id.
	ID int64

	// Roles are the roles assigned to this principal.
	Roles []Role

	// Capabilities are the named capabilities granted to this principal.
	Capabilities []string
}

// HasRole checks if the identity has a specific role.
func (id *Identity) HasRole(role Role) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the identity has at least one of the given roles.
func (id *Identity) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if id.HasRole(role) {
			return true
		}
	}
	return false
}

// HasCapability checks if the identity holds the named capability.
func (id *Identity) HasCapability(capability string) bool {
	for _, c := range id.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity has the administrator role.
func (id *Identity) IsAdmin() bool {
	return id.HasRole(RoleAdministrator)
}

// IsAdminOrEditor reports whether the identity has an admin or
// editor-equivalent role.
func (id *Identity) IsAdminOrEditor() bool {
	return id.HasAnyRole(RoleAdministrator, RoleEditor)
}
