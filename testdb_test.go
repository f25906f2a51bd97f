package identity_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	identity "github.com/goliatone/go-identity"
)

var testDBSeq atomic.Int64

// newTestDB opens a fresh in-memory SQLite database with the account table
// and a handful of owned-record tables used by the cascade tests.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxIdleConns(1000)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	_, err = db.NewCreateTable().
		Model((*identity.Account)(nil)).
		Exec(ctx)
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE event_registrations (id TEXT PRIMARY KEY, account_id TEXT NOT NULL)`,
		`CREATE TABLE scores (id TEXT PRIMARY KEY, account_id TEXT NOT NULL)`,
		`CREATE TABLE notifications (id TEXT PRIMARY KEY, account_id TEXT NOT NULL)`,
		`CREATE TABLE events (id TEXT PRIMARY KEY, created_by TEXT)`,
		`CREATE TABLE assigned_events (event_id TEXT NOT NULL, account_id TEXT NOT NULL)`,
	} {
		_, err = db.Exec(ddl)
		require.NoError(t, err)
	}

	return db
}

func newTestRepo(t *testing.T) (identity.RepositoryManager, *bun.DB) {
	db := newTestDB(t)
	repo := identity.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())
	return repo, db
}

func newTestTokenService() identity.TokenService {
	return identity.NewTokenService([]byte("test-signing-key"), 1, 24, "go-identity-test", nil, nil)
}

func newTestSealer(t *testing.T) *identity.PasswordSealer {
	t.Helper()
	sealer, err := identity.NewPasswordSealer("test-sealer-secret")
	require.NoError(t, err)
	return sealer
}

// mustCreateAccount seeds an account row with a real password hash
func mustCreateAccount(t *testing.T, repo identity.RepositoryManager, account *identity.Account, password string) *identity.Account {
	t.Helper()

	if password != "" {
		hash, err := identity.HashPassword(password)
		require.NoError(t, err)
		account.PasswordHash = hash
	}

	created, err := repo.Accounts().Create(context.Background(), account)
	require.NoError(t, err)
	return created
}

func countRows(t *testing.T, db *bun.DB, table, column string, id uuid.UUID) int {
	t.Helper()

	var count int
	err := db.NewSelect().
		Table(table).
		ColumnExpr("count(*)").
		Where(column+" = ?", id).
		Scan(context.Background(), &count)
	require.NoError(t, err)
	return count
}

func reloadAccount(t *testing.T, repo identity.RepositoryManager, id uuid.UUID) *identity.Account {
	t.Helper()

	account, err := repo.Accounts().GetByID(context.Background(), id.String())
	require.NoError(t, err)
	return account
}
