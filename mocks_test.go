package identity_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/stretchr/testify/mock"

	identity "github.com/goliatone/go-identity"
)

// MockAccountResolver implements identity.AccountResolver
type MockAccountResolver struct {
	mock.Mock
}

func (m *MockAccountResolver) GetByUsername(ctx context.Context, username string) (*identity.Account, error) {
	args := m.Called(ctx, username)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

func (m *MockAccountResolver) GetByEmail(ctx context.Context, email string) (*identity.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}

// MockTokenIssuer implements identity.TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueTokenPair(id identity.Identity) (identity.TokenPair, error) {
	args := m.Called(id)
	pair, _ := args.Get(0).(identity.TokenPair)
	return pair, args.Error(1)
}

// recordingLogger renders every log call so tests can assert on the
// formatted output
type recordingLogger struct {
	entries []string
}

func (l *recordingLogger) record(format string, args ...any) {
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debug(format string, args ...any) { l.record(format, args...) }
func (l *recordingLogger) Info(format string, args ...any)  { l.record(format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.record(format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.record(format, args...) }

// capturedMessage records one Notifier.Send call
type capturedMessage struct {
	Subject   string
	Body      string
	Recipient string
}

// capturingNotifier collects every notification instead of delivering it
type capturingNotifier struct {
	messages []capturedMessage
	fail     bool
}

func (c *capturingNotifier) Send(ctx context.Context, subject, body, recipient string) error {
	c.messages = append(c.messages, capturedMessage{
		Subject:   subject,
		Body:      body,
		Recipient: recipient,
	})
	if c.fail {
		return errors.New("smtp unreachable")
	}
	return nil
}
