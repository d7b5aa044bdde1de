package mail

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of sending them. Development only.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "mail not sent (log provider)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
