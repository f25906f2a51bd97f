package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// TokenPair is an access/refresh token set bound to one account
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// TokenIssuer mints bearer token pairs for an account
type TokenIssuer interface {
	IssueTokenPair(identity Identity) (TokenPair, error)
}

// Notifier dispatches best-effort messages to a recipient. Implementations
// must not block the caller; transport failures are returned so the core
// can log and move on, never to abort the owning operation.
type Notifier interface {
	Send(ctx context.Context, subject, body, recipient string) error
}

// ActorRef identifies who/what triggered a lifecycle mutation
type ActorRef struct {
	ID   uuid.UUID
	Type string
}

// IsAdmin reports whether the actor is a usable acting admin for
// ownership reassignment
func (a ActorRef) IsAdmin() bool {
	return a.Type == "admin" && a.ID != uuid.Nil
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
