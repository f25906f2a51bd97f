package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ApplyPasswordSQL rewrites the credential columns in one statement. The ORM
// partial update drops zero values, so clearing the reset flag and pending
// blob has to go through raw SQL.
var ApplyPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"must_reset_password" = ?,
	"pending_password_encrypted" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

// CredentialResult is returned by successful credential mutations. Tokens
// are always fresh so the caller does not need to re-authenticate.
type CredentialResult struct {
	Account *Account
	Tokens  TokenPair
}

// CredentialManager generates and consumes one-time credentials without
// ever persisting plaintext
type CredentialManager struct {
	repo   RepositoryManager
	sealer *PasswordSealer
	tokens TokenIssuer
	logger Logger
}

// NewCredentialManager creates a manager with sane defaults
func NewCredentialManager(repo RepositoryManager, sealer *PasswordSealer, tokens TokenIssuer) *CredentialManager {
	return &CredentialManager{
		repo:   repo,
		sealer: sealer,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the manager
func (m *CredentialManager) WithLogger(logger Logger) *CredentialManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// SealPendingPassword seals a plaintext for deferred one-time redemption
func (m *CredentialManager) SealPendingPassword(plaintext string) (string, error) {
	return m.sealer.Seal(plaintext)
}

// UnsealPendingPassword recovers the plaintext from a sealed blob
func (m *CredentialManager) UnsealPendingPassword(blob string) (string, error) {
	return m.sealer.Unseal(blob)
}

// IssueTemporaryPassword mints a random one-time credential, stores only its
// hash, and returns the plaintext exactly once for delivery.
func (m *CredentialManager) IssueTemporaryPassword(ctx context.Context, account *Account) (string, error) {
	var plaintext string

	err := m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		plaintext, err = m.IssueTemporaryPasswordTx(ctx, tx, account)
		return err
	})
	if err != nil {
		return "", err
	}

	return plaintext, nil
}

// IssueTemporaryPasswordTx is the transactional variant used by callers
// that already hold a transaction scope
func (m *CredentialManager) IssueTemporaryPasswordTx(ctx context.Context, tx bun.IDB, account *Account) (string, error) {
	plaintext, err := GenerateTemporaryPassword()
	if err != nil {
		return "", err
	}

	hash, err := HashPassword(plaintext)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash temporary password")
	}

	if err := m.applyPasswordTx(ctx, tx, account, hash, true, ""); err != nil {
		return "", err
	}

	return plaintext, nil
}

// ProposePendingPassword seals a new plaintext onto the account for the
// owner to redeem on their next sign-in. The live password stays untouched
// until the pending credential is accepted.
func (m *CredentialManager) ProposePendingPassword(ctx context.Context, account *Account, plaintext string) error {
	if err := ValidatePasswordPolicy(plaintext); err != nil {
		return err
	}

	blob, err := m.sealer.Seal(plaintext)
	if err != nil {
		return err
	}

	return m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.applyPasswordTx(ctx, tx, account, account.PasswordHash, true, blob)
	})
}

// AcceptPendingPassword redeems the sealed pending credential: the unsealed
// plaintext becomes the live password, the blob and reset flag are cleared,
// and a fresh token pair is issued for immediate sign-in.
func (m *CredentialManager) AcceptPendingPassword(ctx context.Context, account *Account) (*CredentialResult, error) {
	if account == nil || account.PendingPasswordEncrypted == "" {
		return nil, ErrNoPendingPassword
	}

	plaintext, err := m.sealer.Unseal(account.PendingPasswordEncrypted)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(plaintext)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash pending password")
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.applyPasswordTx(ctx, tx, account, hash, false, "")
	})
	if err != nil {
		return nil, err
	}

	return m.issueTokens(account)
}

// SetNewPassword replaces the live password after enforcing the password
// policy, clearing any pending credential state
func (m *CredentialManager) SetNewPassword(ctx context.Context, account *Account, plaintext string) (*CredentialResult, error) {
	if err := ValidatePasswordPolicy(plaintext); err != nil {
		return nil, err
	}

	hash, err := HashPassword(plaintext)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return m.applyPasswordTx(ctx, tx, account, hash, false, "")
	})
	if err != nil {
		return nil, err
	}

	return m.issueTokens(account)
}

func (m *CredentialManager) applyPasswordTx(ctx context.Context, tx bun.IDB, account *Account, hash string, mustReset bool, pendingBlob string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	res, err := m.repo.Accounts().RawTx(ctx, tx, ApplyPasswordSQL, hash, mustReset, pendingBlob, account.ID.String())
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account credentials")
	}

	if len(res) == 0 {
		return goerrors.New("account not found during credential update", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(map[string]any{"id": account.ID.String()})
	}

	account.PasswordHash = hash
	account.MustResetPassword = mustReset
	account.PendingPasswordEncrypted = pendingBlob

	return nil
}

func (m *CredentialManager) issueTokens(account *Account) (*CredentialResult, error) {
	tokens, err := m.tokens.IssueTokenPair(accountIdentity(account))
	if err != nil {
		return nil, err
	}

	return &CredentialResult{Account: account, Tokens: tokens}, nil
}
