package identity_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	identity "github.com/goliatone/go-identity"
)

func newTestApprovalEngine(t *testing.T) (*identity.ApprovalEngine, identity.RepositoryManager, *bun.DB, *capturingNotifier) {
	t.Helper()

	repo, db := newTestRepo(t)
	credentials := identity.NewCredentialManager(repo, newTestSealer(t), newTestTokenService())
	guard := identity.NewLifecycleGuard(repo)
	notifier := &capturingNotifier{}
	engine := identity.NewApprovalEngine(repo, credentials, guard).WithNotifier(notifier)

	return engine, repo, db, notifier
}

func adminActor() identity.ActorRef {
	return identity.ActorRef{ID: uuid.New(), Type: "admin"}
}

func TestApprovePendingJudgeMintsTemporaryPassword(t *testing.T) {
	engine, repo, _, notifier := newTestApprovalEngine(t)

	account := mustCreateAccount(t, repo, &identity.Account{
		Username:       "judge-jane",
		Email:          "jane@x.org",
		Role:           identity.RoleJudge,
		ApprovalStatus: identity.ApprovalPending,
		Active:         false,
	}, "")

	updated, err := engine.SetApproval(context.Background(), adminActor(), account, identity.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, identity.ApprovalApproved, updated.ApprovalStatus)
	assert.True(t, updated.Active)

	stored := reloadAccount(t, repo, account.ID)
	assert.Equal(t, identity.ApprovalApproved, stored.ApprovalStatus)
	assert.True(t, stored.Active)
	assert.True(t, stored.MustResetPassword)
	require.NotEmpty(t, stored.PasswordHash)

	require.Len(t, notifier.messages, 1)
	msg := notifier.messages[0]
	assert.Equal(t, "jane@x.org", msg.Recipient)
	assert.Contains(t, msg.Body, "judge-jane")
	// the mailed temporary password must match the stored hash
	temp := extractTempPassword(t, msg.Body)
	require.NoError(t, identity.ComparePasswordAndHash(temp, stored.PasswordHash))
}

func TestRepeatApprovalKeepsExistingPassword(t *testing.T) {
	engine, repo, _, notifier := newTestApprovalEngine(t)

	account := mustCreateAccount(t, repo, &identity.Account{
		Username:          "judge-jane",
		Email:             "jane@x.org",
		Role:              identity.RoleJudge,
		ApprovalStatus:    identity.ApprovalApproved,
		Active:            true,
		MustResetPassword: true,
	}, "Existing99")
	oldHash := account.PasswordHash

	_, err := engine.SetApproval(context.Background(), adminActor(), account, identity.ApprovalApproved)
	require.NoError(t, err)

	stored := reloadAccount(t, repo, account.ID)
	assert.Equal(t, oldHash, stored.PasswordHash, "repeat approval must not rotate the password")
	assert.False(t, stored.MustResetPassword, "stale reset flag is cleared")

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0].Body, "judge-jane")
}

func TestDirectApproveAlwaysRotatesCredential(t *testing.T) {
	engine, repo, _, notifier := newTestApprovalEngine(t)

	account := mustCreateAccount(t, repo, &identity.Account{
		Username:       "vol-victor",
		Email:          "victor@x.org",
		Role:           identity.RoleVolunteer,
		ApprovalStatus: identity.ApprovalPending,
		Active:         false,
	}, "Existing99")
	oldHash := account.PasswordHash

	_, err := engine.Approve(context.Background(), adminActor(), account)
	require.NoError(t, err)

	stored := reloadAccount(t, repo, account.ID)
	assert.NotEqual(t, oldHash, stored.PasswordHash)
	assert.True(t, stored.MustResetPassword)

	require.Len(t, notifier.messages, 1)
	temp := extractTempPassword(t, notifier.messages[0].Body)
	require.NoError(t, identity.ComparePasswordAndHash(temp, stored.PasswordHash))
}

func TestRejectDeletesAccount(t *testing.T) {
	engine, repo, db, notifier := newTestApprovalEngine(t)

	account := mustCreateAccount(t, repo, &identity.Account{
		Username:       "judge-jane",
		Email:          "jane@x.org",
		Role:           identity.RoleJudge,
		ApprovalStatus: identity.ApprovalPending,
		Active:         false,
	}, "")

	err := engine.Reject(context.Background(), adminActor(), account)
	require.NoError(t, err)

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "jane@x.org", notifier.messages[0].Recipient)

	assert.Equal(t, 0, countRows(t, db, "accounts", "id", account.ID))
}

func TestRejectionSurvivesNotifierFailure(t *testing.T) {
	engine, repo, db, notifier := newTestApprovalEngine(t)
	notifier.fail = true

	account := mustCreateAccount(t, repo, &identity.Account{
		Username:       "judge-jane",
		Email:          "jane@x.org",
		Role:           identity.RoleJudge,
		ApprovalStatus: identity.ApprovalPending,
		Active:         false,
	}, "")

	err := engine.Reject(context.Background(), adminActor(), account)
	require.NoError(t, err, "delivery failures never roll back the transition")

	assert.Equal(t, 0, countRows(t, db, "accounts", "id", account.ID))
}

func TestSetApprovalRejectsUnknownStatus(t *testing.T) {
	engine, repo, _, _ := newTestApprovalEngine(t)

	account := mustCreateAccount(t, repo, &identity.Account{
		Username:       "judge-jane",
		Email:          "jane@x.org",
		Role:           identity.RoleJudge,
		ApprovalStatus: identity.ApprovalPending,
		Active:         false,
	}, "")

	_, err := engine.SetApproval(context.Background(), adminActor(), account, identity.ApprovalStatus("maybe"))
	require.Error(t, err)

	stored := reloadAccount(t, repo, account.ID)
	assert.Equal(t, identity.ApprovalPending, stored.ApprovalStatus)
}

func TestSetApprovalBackToPending(t *testing.T) {
	engine, repo, _, notifier := newTestApprovalEngine(t)

	account := mustCreateAccount(t, repo, &identity.Account{
		Username:       "vol-victor",
		Email:          "victor@x.org",
		Role:           identity.RoleVolunteer,
		ApprovalStatus: identity.ApprovalApproved,
		Active:         true,
	}, "Existing99")

	updated, err := engine.SetApproval(context.Background(), adminActor(), account, identity.ApprovalPending)
	require.NoError(t, err)
	assert.Equal(t, identity.ApprovalPending, updated.ApprovalStatus)
	assert.True(t, updated.Active, "pending override leaves the active flag alone")

	assert.Empty(t, notifier.messages)
}

// extractTempPassword pulls the credential out of the notification body,
// which renders it on its own line as "Temporary password: <value>"
func extractTempPassword(t *testing.T, body string) string {
	t.Helper()

	for _, line := range strings.Split(body, "\n") {
		if value, ok := strings.CutPrefix(line, "Temporary password: "); ok {
			return value
		}
	}

	t.Fatalf("notification body carries no temporary password: %q", body)
	return ""
}
