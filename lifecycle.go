package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetActiveSQL flips the active flag through raw SQL; the ORM partial
// update drops false values.
var SetActiveSQL = `UPDATE "accounts" AS "acc"
SET
	"is_active" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

var SetRoleSQL = `UPDATE "accounts" AS "acc"
SET
	"role" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

// LifecycleGuard protects the last-admin invariant across role and active
// mutations and orchestrates cascading account deletion
type LifecycleGuard struct {
	repo   RepositoryManager
	logger Logger
}

// NewLifecycleGuard creates a guard with sane defaults
func NewLifecycleGuard(repo RepositoryManager) *LifecycleGuard {
	return &LifecycleGuard{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the guard
func (g *LifecycleGuard) WithLogger(logger Logger) *LifecycleGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WouldRemoveLastAdmin reports whether no other active admin exists beside
// the (optionally) excluded account. Pure query, no side effects.
func (g *LifecycleGuard) WouldRemoveLastAdmin(ctx context.Context, excludeID uuid.UUID) (bool, error) {
	count, err := g.repo.Accounts().CountOtherActiveAdmins(ctx, excludeID)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count active admins")
	}
	return count == 0, nil
}

func (g *LifecycleGuard) wouldRemoveLastAdminTx(ctx context.Context, tx bun.IDB, excludeID uuid.UUID) (bool, error) {
	count, err := g.repo.Accounts().CountOtherActiveAdminsTx(ctx, tx, excludeID)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count active admins")
	}
	return count == 0, nil
}

// SetActive persists the target active state, refusing to deactivate the
// last active admin
func (g *LifecycleGuard) SetActive(ctx context.Context, actor ActorRef, account *Account, target bool) (*Account, error) {
	err := g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if account.Role == RoleAdmin && !target {
			last, err := g.wouldRemoveLastAdminTx(ctx, tx, account.ID)
			if err != nil {
				return err
			}
			if last {
				return ErrLastAdmin.WithMetadata(map[string]any{
					"id": account.ID.String(),
				})
			}
		}

		return g.execGuardedUpdate(ctx, tx, SetActiveSQL, target, account.ID)
	})
	if err != nil {
		return nil, err
	}

	account.Active = target
	return account, nil
}

// SetRole persists a role change, refusing to demote the last active admin
func (g *LifecycleGuard) SetRole(ctx context.Context, actor ActorRef, account *Account, newRole Role) (*Account, error) {
	if !newRole.IsValid() {
		return nil, ErrInvalidRole.WithMetadata(map[string]any{
			"role": string(newRole),
		})
	}

	err := g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if account.Role == RoleAdmin && newRole != RoleAdmin {
			last, err := g.wouldRemoveLastAdminTx(ctx, tx, account.ID)
			if err != nil {
				return err
			}
			if last {
				return ErrLastAdmin.WithMetadata(map[string]any{
					"id": account.ID.String(),
				})
			}
		}

		return g.execGuardedUpdate(ctx, tx, SetRoleSQL, newRole, account.ID)
	})
	if err != nil {
		return nil, err
	}

	account.Role = newRole
	return account, nil
}

// DeleteAccountWithCleanup removes the account and every record it owns in
// one transaction:
//
//  1. detach many-to-many associations (hard, aborts on failure)
//  2. reassign authored records to the acting admin, or clear ownership
//     when none is available (hard, aborts on failure)
//  3. delete each owned-record category best-effort; failures are recorded
//     in the report and swallowed so deletion makes forward progress
//  4. delete the account row
func (g *LifecycleGuard) DeleteAccountWithCleanup(ctx context.Context, actingAdmin ActorRef, account *Account) (*CleanupReport, error) {
	report := &CleanupReport{}
	registry := g.repo.Cleanups()

	err := g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if account.Role == RoleAdmin && account.Active {
			last, err := g.wouldRemoveLastAdminTx(ctx, tx, account.ID)
			if err != nil {
				return err
			}
			if last {
				return ErrLastAdmin.WithMetadata(map[string]any{
					"id": account.ID.String(),
				})
			}
		}

		for _, d := range registry.Detachers() {
			if err := d.DetachAllFor(ctx, tx, account.ID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to detach association "+d.Association())
			}
		}

		var newOwner *uuid.UUID
		if actingAdmin.IsAdmin() && actingAdmin.ID != account.ID {
			owner := actingAdmin.ID
			newOwner = &owner
		}

		for _, o := range registry.Reassigners() {
			if err := o.ReassignCreatedBy(ctx, tx, account.ID, newOwner); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reassign ownership "+o.Ownership())
			}
		}

		for _, h := range registry.Handlers() {
			// each category runs in a savepoint so one drifted table
			// cannot poison the enclosing transaction
			err := tx.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				return h.DeleteAllFor(ctx, tx, account.ID)
			})
			report.add(h.Category(), err)
			if err != nil {
				g.logger.Warn("cleanup category %s failed for account %s: %v", h.Category(), account.ID, err)
			}
		}

		return g.repo.Accounts().HardDeleteTx(ctx, tx, account.ID)
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (g *LifecycleGuard) execGuardedUpdate(ctx context.Context, tx bun.IDB, query string, value any, id uuid.UUID) error {
	res, err := g.repo.Accounts().RawTx(ctx, tx, query, value, id.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account")
	}

	if len(res) == 0 {
		return goerrors.New("account not found during update", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}
