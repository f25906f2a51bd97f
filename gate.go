package identity

// IsAuthorized is the per-request predicate deciding whether an already
// authenticated account may proceed. Stateless and side-effect free, safe
// to call on every request.
func IsAuthorized(account *Account) bool {
	if account == nil {
		return false
	}

	status := account.EffectiveStatus()

	switch account.Role {
	case RoleJudge, RoleVolunteer:
		return status == ApprovalApproved
	case RoleStudent:
		return status != ApprovalRejected
	case RoleAdmin, RoleSchool:
		return true
	default:
		return false
	}
}
