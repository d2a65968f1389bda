package notify

import "context"

// Notifier delivers best-effort messages to a piggy device. Failures are the
// caller's to log and drop; a failed notification never rolls anything back.
type Notifier interface {
	SendMessage(ctx context.Context, deviceID, msg string) error
}

// Nop discards all messages. Used when no notification channel is configured.
type Nop struct{}

func (Nop) SendMessage(ctx context.Context, deviceID, msg string) error { return nil }
