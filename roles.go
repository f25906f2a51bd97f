package identity

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleJudge, RoleVolunteer, RoleSchool, RoleStudent:
		return true
	default:
		return false
	}
}

// RequiresApproval reports whether accounts with this role must clear
// review before they may authenticate
func (r Role) RequiresApproval() bool {
	switch r {
	case RoleJudge, RoleVolunteer:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{
		RoleAdmin,
		RoleJudge,
		RoleVolunteer,
		RoleSchool,
		RoleStudent,
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}

// IsValid checks the status against the closed set
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	default:
		return false
	}
}

// ParseApprovalStatus safely parses a string into an ApprovalStatus
func ParseApprovalStatus(statusStr string) (ApprovalStatus, bool) {
	status := ApprovalStatus(statusStr)
	return status, status.IsValid()
}
