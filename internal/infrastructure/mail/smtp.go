package mail

import (
	"context"
	"fmt"

	"github.com/go-auth-nosql/internal/config"
	gomail "github.com/xhit/go-simple-mail/v2"
)

// SMTPSender opens one SMTP connection per message.
type SMTPSender struct {
	server *gomail.SMTPServer
	from   string
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	server := gomail.NewSMTPClient()
	server.Host = cfg.SMTPHost
	server.Port = cfg.SMTPPort
	server.Username = cfg.SMTPUsername
	server.Password = cfg.SMTPPassword
	server.Encryption = encryptionFor(cfg.SMTPPort)
	if cfg.SMTPUsername == "" {
		server.Authentication = gomail.AuthNone
	}
	server.ConnectTimeout = cfg.MailTimeout
	server.SendTimeout = cfg.MailTimeout
	server.KeepAlive = false
	return &SMTPSender{server: server, from: cfg.MailFrom}
}

// encryptionFor picks implicit TLS for 465, plaintext for local relays and
// STARTTLS for everything else.
func encryptionFor(port int) gomail.Encryption {
	switch port {
	case 465:
		return gomail.EncryptionSSLTLS
	case 25, 1025:
		return gomail.EncryptionNone
	default:
		return gomail.EncryptionSTARTTLS
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email := gomail.NewMSG()
	email.SetFrom(s.from).AddTo(msg.To).SetSubject(msg.Subject)
	email.SetBody(gomail.TextPlain, msg.Text)
	if msg.HTML != "" {
		email.AddAlternative(gomail.TextHTML, msg.HTML)
	}
	if email.Error != nil {
		return fmt.Errorf("build message: %w", email.Error)
	}

	client, err := s.server.Connect()
	if err != nil {
		return fmt.Errorf("smtp connect: %w", err)
	}
	defer client.Close()

	if err := email.Send(client); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
