package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeApprovalRequired   = "APPROVAL_REQUIRED"
	textCodeAccountBlacklisted = "ACCOUNT_BLACKLISTED"
	textCodeAccountInactive    = "ACCOUNT_INACTIVE"
	textCodeLastAdmin          = "LAST_ADMIN"
	textCodeInvalidState       = "INVALID_STATE"
	textCodeInvalidRole        = "INVALID_ROLE"
	textCodeInvalidApproval    = "INVALID_APPROVAL_STATUS"
)

// ErrInvalidCredentials is returned for every failed identity resolution.
// The message stays generic so callers cannot enumerate accounts.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrApprovalRequired blocks reviewed roles that have not been approved
var ErrApprovalRequired = goerrors.New("account has not been approved", goerrors.CategoryAuth).
	WithTextCode(textCodeApprovalRequired).
	WithCode(goerrors.CodeForbidden)

// ErrAccountBlacklisted blocks rejected student accounts
var ErrAccountBlacklisted = goerrors.New("account has been blacklisted", goerrors.CategoryAuth).
	WithTextCode(textCodeAccountBlacklisted).
	WithCode(goerrors.CodeForbidden)

// ErrAccountInactive blocks deactivated accounts regardless of role
var ErrAccountInactive = goerrors.New("account is inactive", goerrors.CategoryAuth).
	WithTextCode(textCodeAccountInactive).
	WithCode(goerrors.CodeForbidden)

// ErrLastAdmin is returned when a mutation would leave the platform
// without a single active administrator
var ErrLastAdmin = goerrors.New("cannot remove the last active admin", goerrors.CategoryConflict).
	WithTextCode(textCodeLastAdmin).
	WithCode(goerrors.CodeConflict)

// ErrNoPendingPassword is returned when redeeming a pending credential
// that was never sealed
var ErrNoPendingPassword = goerrors.New("no pending password to accept", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidState).
	WithCode(goerrors.CodeConflict)

// ErrInvalidRole rejects a role outside the closed set
var ErrInvalidRole = goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidApprovalStatus rejects an approval status outside the closed set
var ErrInvalidApprovalStatus = goerrors.New("unknown or invalid approval status", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidApproval).
	WithCode(goerrors.CodeBadRequest)
