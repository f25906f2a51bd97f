package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the account's platform role
type Role string

const (
	// RoleAdmin administers the platform
	RoleAdmin Role = "admin"
	// RoleJudge scores event submissions, subject to review
	RoleJudge Role = "judge"
	// RoleVolunteer assists at events, subject to review
	RoleVolunteer Role = "volunteer"
	// RoleSchool manages a school's participants
	RoleSchool Role = "school"
	// RoleStudent participates in events
	RoleStudent Role = "student"
)

// ApprovalStatus is the review outcome gating login for reviewed roles
type ApprovalStatus string

const (
	// ApprovalPending awaits an admin decision
	ApprovalPending ApprovalStatus = "pending"
	// ApprovalApproved unlocks login for reviewed roles
	ApprovalApproved ApprovalStatus = "approved"
	// ApprovalRejected is terminal; for students it acts as a blacklist
	ApprovalRejected ApprovalStatus = "rejected"
)

// Account is the identity root for every platform participant
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID                       uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role                     Role           `bun:"role,notnull" json:"role,omitempty"`
	Username                 string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email                    string         `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone                    string         `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash             string         `bun:"password_hash" json:"password_hash,omitempty"`
	ApprovalStatus           ApprovalStatus `bun:"approval_status,notnull" json:"approval_status,omitempty"`
	Active                   bool           `bun:"is_active" json:"is_active"`
	MustResetPassword        bool           `bun:"must_reset_password" json:"must_reset_password"`
	PendingPasswordEncrypted string         `bun:"pending_password_encrypted" json:"pending_password_encrypted,omitempty"`
	CreatedAt                *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt                *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt                *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills a zero-value approval status
func (a *Account) EnsureStatus() {
	if a.ApprovalStatus == "" {
		a.ApprovalStatus = ApprovalPending
	}
}

// EffectiveStatus reads the approval status, treating a zero value as
// pending without mutating the account
func (a *Account) EffectiveStatus() ApprovalStatus {
	if a.ApprovalStatus == "" {
		return ApprovalPending
	}
	return a.ApprovalStatus
}

// HasUsablePassword reports whether the account holds a live credential hash
func (a *Account) HasUsablePassword() bool {
	return a.PasswordHash != ""
}

// IsApproved reports whether the account cleared review
func (a *Account) IsApproved() bool {
	return a.ApprovalStatus == ApprovalApproved
}

// SanitizedAccount is the account view safe to hand back to callers. It
// never carries the password hash or the sealed pending credential.
type SanitizedAccount struct {
	ID                string         `json:"id"`
	Username          string         `json:"username"`
	Email             string         `json:"email"`
	Role              Role           `json:"role"`
	ApprovalStatus    ApprovalStatus `json:"approval_status"`
	Active            bool           `json:"is_active"`
	MustResetPassword bool           `json:"must_reset_password"`
}

// Sanitize returns the public projection of the account
func (a *Account) Sanitize() SanitizedAccount {
	return SanitizedAccount{
		ID:                a.ID.String(),
		Username:          a.Username,
		Email:             a.Email,
		Role:              a.Role,
		ApprovalStatus:    a.ApprovalStatus,
		Active:            a.Active,
		MustResetPassword: a.MustResetPassword,
	}
}
