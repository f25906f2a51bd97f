package identity

import (
	"context"
	"fmt"
	"time"
)

// notifyTimeout bounds how long a notification dispatch may hold up the
// caller; the owning operation has already committed by the time we send.
const notifyTimeout = 5 * time.Second

type noopNotifier struct{}

func (noopNotifier) Send(ctx context.Context, subject, body, recipient string) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// dispatchNotification sends best-effort: transport errors are logged and
// swallowed so a failed mail never fails the operation that triggered it
func dispatchNotification(ctx context.Context, notifier Notifier, logger Logger, subject, body, recipient string) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := normalizeNotifier(notifier).Send(ctx, subject, body, recipient); err != nil {
		if logger == nil {
			logger = defLogger{}
		}
		logger.Warn("notification %q to %s failed: %v", subject, recipient, err)
	}
}

func temporaryPasswordMessage(username, tempPassword string) (string, string) {
	subject := "Your account has been approved"
	body := fmt.Sprintf(
		"Your account has been approved.\n\nUsername: %s\nTemporary password: %s\n\nYou will be asked to choose a new password on your first sign-in.",
		username, tempPassword,
	)
	return subject, body
}

func approvalMessage(username string) (string, string) {
	subject := "Your account has been approved"
	body := fmt.Sprintf("Hello %s,\n\nYour account has been approved. You can sign in with your existing credentials.", username)
	return subject, body
}

func rejectionMessage(username string) (string, string) {
	subject := "Your account request was not approved"
	body := fmt.Sprintf("Hello %s,\n\nYour account request has been reviewed and was not approved.", username)
	return subject, body
}
