package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CleanupHandler removes one category of owned records for an account.
// Handlers run best-effort during account deletion: a failing category is
// reported but never blocks the deletion itself.
type CleanupHandler interface {
	Category() string
	DeleteAllFor(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error
}

// AssociationDetacher removes many-to-many link rows for an account.
// Detachers run in the hard-atomic portion of the deletion: a failure
// aborts the whole transaction so no dangling link row can survive.
type AssociationDetacher interface {
	Association() string
	DetachAllFor(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error
}

// OwnershipReassigner transfers records the account created to a new owner,
// or clears ownership when newOwner is nil. Runs in the hard-atomic portion
// of the deletion.
type OwnershipReassigner interface {
	Ownership() string
	ReassignCreatedBy(ctx context.Context, tx bun.IDB, accountID uuid.UUID, newOwner *uuid.UUID) error
}

// CleanupRegistry collects the handlers a deployment wires in. Owning
// subsystems register here instead of the lifecycle guard depending on
// their concrete types. Registration order is execution order, so callers
// register dependents before the records they depend on.
type CleanupRegistry struct {
	handlers    []CleanupHandler
	detachers   []AssociationDetacher
	reassigners []OwnershipReassigner
}

func NewCleanupRegistry() *CleanupRegistry {
	return &CleanupRegistry{}
}

// Register adds a best-effort owned-record cleanup handler
func (r *CleanupRegistry) Register(h CleanupHandler) *CleanupRegistry {
	if h != nil {
		r.handlers = append(r.handlers, h)
	}
	return r
}

// RegisterDetacher adds a hard-atomic association detacher
func (r *CleanupRegistry) RegisterDetacher(d AssociationDetacher) *CleanupRegistry {
	if d != nil {
		r.detachers = append(r.detachers, d)
	}
	return r
}

// RegisterReassigner adds a hard-atomic ownership reassigner
func (r *CleanupRegistry) RegisterReassigner(o OwnershipReassigner) *CleanupRegistry {
	if o != nil {
		r.reassigners = append(r.reassigners, o)
	}
	return r
}

func (r *CleanupRegistry) Handlers() []CleanupHandler {
	return r.handlers
}

func (r *CleanupRegistry) Detachers() []AssociationDetacher {
	return r.detachers
}

func (r *CleanupRegistry) Reassigners() []OwnershipReassigner {
	return r.reassigners
}

// CleanupResult records one category's cleanup outcome
type CleanupResult struct {
	Category string
	Err      error
}

// CleanupReport aggregates per-category outcomes so callers can log or
// surface swallowed failures instead of losing them
type CleanupReport struct {
	Results []CleanupResult
}

func (c *CleanupReport) add(category string, err error) {
	c.Results = append(c.Results, CleanupResult{Category: category, Err: err})
}

// Failed returns the categories whose cleanup was swallowed
func (c *CleanupReport) Failed() []CleanupResult {
	var failed []CleanupResult
	for _, res := range c.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// TableCleanup deletes owned rows from a single table keyed by an
// account-id column
type TableCleanup struct {
	category string
	table    string
	column   string
}

var _ CleanupHandler = (*TableCleanup)(nil)

func NewTableCleanup(category, table, column string) *TableCleanup {
	return &TableCleanup{category: category, table: table, column: column}
}

func (t *TableCleanup) Category() string {
	return t.category
}

func (t *TableCleanup) DeleteAllFor(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error {
	_, err := tx.NewDelete().
		Table(t.table).
		Where(t.column+" = ?", accountID).
		Exec(ctx)

	return err
}

// TableDetach removes many-to-many link rows from a single join table
type TableDetach struct {
	association string
	table       string
	column      string
}

var _ AssociationDetacher = (*TableDetach)(nil)

func NewTableDetach(association, table, column string) *TableDetach {
	return &TableDetach{association: association, table: table, column: column}
}

func (t *TableDetach) Association() string {
	return t.association
}

func (t *TableDetach) DetachAllFor(ctx context.Context, tx bun.IDB, accountID uuid.UUID) error {
	_, err := tx.NewDelete().
		Table(t.table).
		Where(t.column+" = ?", accountID).
		Exec(ctx)

	return err
}

// TableReassign rewrites a created-by column to a new owner, or NULL when
// no acting admin is available
type TableReassign struct {
	ownership string
	table     string
	column    string
}

var _ OwnershipReassigner = (*TableReassign)(nil)

func NewTableReassign(ownership, table, column string) *TableReassign {
	return &TableReassign{ownership: ownership, table: table, column: column}
}

func (t *TableReassign) Ownership() string {
	return t.ownership
}

func (t *TableReassign) ReassignCreatedBy(ctx context.Context, tx bun.IDB, accountID uuid.UUID, newOwner *uuid.UUID) error {
	q := tx.NewUpdate().
		Table(t.table).
		Where(t.column+" = ?", accountID)

	if newOwner != nil {
		q = q.Set(t.column+" = ?", *newOwner)
	} else {
		q = q.Set(t.column + " = NULL")
	}

	_, err := q.Exec(ctx)
	return err
}
