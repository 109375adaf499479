package gate

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleApplicant, RoleReviewer, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// AllRoles returns all predefined roles
func AllRoles() []UserRole {
	return []UserRole{
		RoleApplicant,
		RoleReviewer,
		RoleAdmin,
	}
}

func roleAllowed(role UserRole, allowed []UserRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
