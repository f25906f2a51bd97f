package identity

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// FederatedLoginSentinel is the default password value signalling that a
// federated identity assertion was already verified by the caller
const FederatedLoginSentinel = "__federated_login__"

// LoginMeta carries the flags the API boundary renders alongside tokens
type LoginMeta struct {
	Message           string `json:"message"`
	RequiresApproval  bool   `json:"requires_approval"`
	MustResetPassword bool   `json:"must_reset_password"`
}

// LoginResult is the envelope produced by a login decision
type LoginResult struct {
	Account SanitizedAccount `json:"account"`
	Tokens  *TokenPair       `json:"tokens,omitempty"`
	Meta    LoginMeta        `json:"meta"`
}

// AccountResolver is the slice of the credential store login needs
type AccountResolver interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
}

// Auther is the single authority for all login paths. It never mutates
// account state.
type Auther struct {
	accounts          AccountResolver
	tokens            TokenIssuer
	logger            Logger
	federatedSentinel string
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(accounts AccountResolver, tokens TokenIssuer) *Auther {
	return &Auther{
		accounts:          accounts,
		tokens:            tokens,
		logger:            defLogger{},
		federatedSentinel: FederatedLoginSentinel,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithFederatedSentinel overrides the sentinel password value used by
// federated login callers
func (s *Auther) WithFederatedSentinel(sentinel string) *Auther {
	if sentinel != "" {
		s.federatedSentinel = sentinel
	}
	return s
}

// Login resolves the identifier to an account, verifies the credential,
// enforces the role/approval/active gates in order, and issues a fresh
// token pair on success.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, goerrors.New("identifier must not be empty", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	account, err := s.resolveAccount(ctx, identifier, password)
	if err != nil {
		s.logger.Debug("login resolution failed for identifier %q", identifier)
		return nil, err
	}

	if err := s.gate(account); err != nil {
		s.logger.Warn("login blocked for account %s: %v", account.ID, err)
		return nil, err
	}

	tokens, err := s.tokens.IssueTokenPair(accountIdentity(account))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue token pair")
	}

	return &LoginResult{
		Account: account.Sanitize(),
		Tokens:  &tokens,
		Meta: LoginMeta{
			Message:           "login successful",
			RequiresApproval:  account.Role.RequiresApproval() && !account.IsApproved(),
			MustResetPassword: account.MustResetPassword,
		},
	}, nil
}

// resolveAccount maps the identifier to exactly one account. Every failure
// collapses into ErrInvalidCredentials so callers cannot probe for accounts.
func (s *Auther) resolveAccount(ctx context.Context, identifier, password string) (*Account, error) {
	// federated assertion: the caller already verified the external
	// identity, resolve by username only
	if password == s.federatedSentinel {
		account, err := s.accounts.GetByUsername(ctx, identifier)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, ErrInvalidCredentials
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve federated identity")
		}
		return account, nil
	}

	account, err := s.accounts.GetByUsername(ctx, identifier)
	if err == nil {
		if ComparePasswordAndHash(password, account.PasswordHash) == nil {
			return account, nil
		}
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account by username")
	}

	account, err = s.accounts.GetByEmail(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account by email")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// gate applies the state-dependent refusals in a fixed order; first match
// wins. Reads only, the decision engine never mutates the account.
func (s *Auther) gate(account *Account) error {
	status := account.EffectiveStatus()

	if account.Role.RequiresApproval() && status != ApprovalApproved {
		return ErrApprovalRequired
	}

	if account.Role == RoleStudent && status == ApprovalRejected {
		return ErrAccountBlacklisted
	}

	if !account.Active {
		return ErrAccountInactive
	}

	return nil
}

type acctIdentity struct {
	account *Account
}

// accountIdentity adapts an account to the Identity contract consumed by
// the token issuer
func accountIdentity(a *Account) Identity {
	return acctIdentity{account: a}
}

func (a acctIdentity) ID() string       { return a.account.ID.String() }
func (a acctIdentity) Username() string { return a.account.Username }
func (a acctIdentity) Email() string    { return a.account.Email }
func (a acctIdentity) Role() string     { return string(a.account.Role) }

var _ Identity = acctIdentity{}
