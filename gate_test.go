package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	identity "github.com/goliatone/go-identity"
)

func TestIsAuthorized(t *testing.T) {
	tests := []struct {
		name     string
		role     identity.Role
		status   identity.ApprovalStatus
		expected bool
	}{
		{"approved judge", identity.RoleJudge, identity.ApprovalApproved, true},
		{"pending judge", identity.RoleJudge, identity.ApprovalPending, false},
		{"rejected judge", identity.RoleJudge, identity.ApprovalRejected, false},
		{"approved volunteer", identity.RoleVolunteer, identity.ApprovalApproved, true},
		{"pending volunteer", identity.RoleVolunteer, identity.ApprovalPending, false},
		{"pending student", identity.RoleStudent, identity.ApprovalPending, true},
		{"approved student", identity.RoleStudent, identity.ApprovalApproved, true},
		{"blacklisted student", identity.RoleStudent, identity.ApprovalRejected, false},
		{"admin", identity.RoleAdmin, identity.ApprovalPending, true},
		{"school", identity.RoleSchool, identity.ApprovalPending, true},
		{"unknown role", identity.Role("superuser"), identity.ApprovalApproved, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			account := &identity.Account{
				Role:           tc.role,
				ApprovalStatus: tc.status,
			}
			assert.Equal(t, tc.expected, identity.IsAuthorized(account))
		})
	}
}

func TestIsAuthorizedNilAccount(t *testing.T) {
	assert.False(t, identity.IsAuthorized(nil))
}

func TestIsAuthorizedDoesNotMutateAccount(t *testing.T) {
	account := &identity.Account{Role: identity.RoleJudge}

	assert.False(t, identity.IsAuthorized(account), "zero status reads as pending")
	assert.Empty(t, account.ApprovalStatus, "the predicate must not backfill the status")
}
