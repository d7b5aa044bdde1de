// Package mail delivers transactional email through a configurable backend.
package mail

import (
	"context"
	"fmt"

	"github.com/go-auth-nosql/internal/config"
)

// Message is a single outbound email with a plain-text and an HTML body.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender hands a message to a mail backend.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns the backend selected by cfg.MailProvider.
func NewSender(cfg *config.Config) (Sender, error) {
	switch cfg.MailProvider {
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "resend":
		return NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
	case "log", "":
		return LogSender{}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
}
