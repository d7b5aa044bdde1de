package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends through the Resend REST API.
type ResendSender struct {
	from   string
	client *resend.Client
}

func NewResendSender(apiKey, from string) (*ResendSender, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key is required")
	}
	if from == "" {
		return nil, errors.New("mail from address is required")
	}
	return &ResendSender{from: from, client: resend.NewClient(apiKey)}, nil
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}
	if _, err := s.client.Emails.SendWithOptions(ctx, params, &resend.SendEmailOptions{}); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}
