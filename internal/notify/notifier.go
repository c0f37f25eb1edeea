package notify

import "context"

// Notifier delivers a message to a recipient. Failures are reported to
// the caller but never undo the change that triggered the message.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
