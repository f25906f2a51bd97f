package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

var SetApprovalSQL = `UPDATE "accounts" AS "acc"
SET
	"approval_status" = ?,
	"is_active" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

var ClearResetFlagSQL = `UPDATE "accounts" AS "acc"
SET
	"must_reset_password" = FALSE,
	"pending_password_encrypted" = ''
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

// ApprovalEngine drives the approval state machine for reviewed roles.
// The status change is persisted and committed first; notification side
// effects run afterwards best-effort and can never roll it back.
type ApprovalEngine struct {
	repo        RepositoryManager
	credentials *CredentialManager
	guard       *LifecycleGuard
	notifier    Notifier
	logger      Logger
}

// NewApprovalEngine creates an engine with sane defaults
func NewApprovalEngine(repo RepositoryManager, credentials *CredentialManager, guard *LifecycleGuard) *ApprovalEngine {
	return &ApprovalEngine{
		repo:        repo,
		credentials: credentials,
		guard:       guard,
		notifier:    noopNotifier{},
		logger:      defLogger{},
	}
}

// WithNotifier sets the notifier used for approval and rejection mail
func (e *ApprovalEngine) WithNotifier(n Notifier) *ApprovalEngine {
	e.notifier = normalizeNotifier(n)
	return e
}

// WithLogger overrides the logger used by the engine
func (e *ApprovalEngine) WithLogger(logger Logger) *ApprovalEngine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// SetApproval transitions the account to the requested approval status and
// performs the transition's side effects.
//
// Approved: the account is activated; a first approval with no usable
// password mints a temporary credential and mails it, a repeat approval
// only clears a stale reset flag. Rejected: a rejection notice is sent and
// the account is deleted through the cascading path. Pending is an
// administrative override that simply persists.
func (e *ApprovalEngine) SetApproval(ctx context.Context, actor ActorRef, account *Account, status ApprovalStatus) (*Account, error) {
	if !status.IsValid() {
		return nil, ErrInvalidApprovalStatus.WithMetadata(map[string]any{
			"status": string(status),
		})
	}

	switch status {
	case ApprovalApproved:
		return e.approve(ctx, account, false)
	case ApprovalRejected:
		return nil, e.reject(ctx, actor, account)
	default:
		err := e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return e.persistStatusTx(ctx, tx, account, status, account.Active)
		})
		if err != nil {
			return nil, err
		}
		return account, nil
	}
}

// Approve is the direct admin action: it always mints a fresh temporary
// credential and mails it together with the username.
func (e *ApprovalEngine) Approve(ctx context.Context, actor ActorRef, account *Account) (*Account, error) {
	return e.approve(ctx, account, true)
}

// Reject is the direct admin action: a rejection notice is attempted and
// the account is removed.
func (e *ApprovalEngine) Reject(ctx context.Context, actor ActorRef, account *Account) error {
	return e.reject(ctx, actor, account)
}

func (e *ApprovalEngine) approve(ctx context.Context, account *Account, forceCredential bool) (*Account, error) {
	var tempPassword string

	err := e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := e.persistStatusTx(ctx, tx, account, ApprovalApproved, true); err != nil {
			return err
		}

		if forceCredential || !account.HasUsablePassword() {
			temp, err := e.credentials.IssueTemporaryPasswordTx(ctx, tx, account)
			if err != nil {
				return err
			}
			tempPassword = temp
			return nil
		}

		if account.MustResetPassword {
			res, err := e.repo.Accounts().RawTx(ctx, tx, ClearResetFlagSQL, account.ID.String())
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear reset flag")
			}
			if len(res) == 0 {
				return goerrors.New("account not found during approval", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			account.MustResetPassword = false
			account.PendingPasswordEncrypted = ""
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if tempPassword != "" {
		subject, body := temporaryPasswordMessage(account.Username, tempPassword)
		e.notify(ctx, subject, body, account.Email)
	} else {
		subject, body := approvalMessage(account.Username)
		e.notify(ctx, subject, body, account.Email)
	}

	return account, nil
}

func (e *ApprovalEngine) reject(ctx context.Context, actor ActorRef, account *Account) error {
	err := e.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return e.persistStatusTx(ctx, tx, account, ApprovalRejected, account.Active)
	})
	if err != nil {
		return err
	}

	subject, body := rejectionMessage(account.Username)
	e.notify(ctx, subject, body, account.Email)

	// rejection is destructive and final; the cascading path keeps the
	// deletion safe even if the account somehow owns records already
	if _, err := e.guard.DeleteAccountWithCleanup(ctx, actor, account); err != nil {
		return err
	}

	return nil
}

func (e *ApprovalEngine) persistStatusTx(ctx context.Context, tx bun.IDB, account *Account, status ApprovalStatus, active bool) error {
	res, err := e.repo.Accounts().RawTx(ctx, tx, SetApprovalSQL, status, active, account.ID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist approval status")
	}

	if len(res) == 0 {
		return goerrors.New("account not found during approval transition", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(map[string]any{"id": account.ID.String()})
	}

	account.ApprovalStatus = status
	account.Active = active

	return nil
}

func (e *ApprovalEngine) notify(ctx context.Context, subject, body, recipient string) {
	dispatchNotification(ctx, e.notifier, e.logger, subject, body, recipient)
}
