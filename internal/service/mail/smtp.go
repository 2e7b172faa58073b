package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
)

const implicitTLSPort = 465

// SMTPSender delivers messages through an authenticated SMTP relay.
type SMTPSender struct {
	client *gomail.Client
}

// NewSMTPSender creates an SMTP transport from the mail configuration.
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if cfg.Port == implicitTLSPort {
		opts = append(opts, gomail.WithSSL())
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{client: client}, nil
}

// Send dials the relay, delivers msg and hangs up.
func (s *SMTPSender) Send(ctx context.Context, msg *gomail.Msg) error {
	return s.client.DialAndSendWithContext(ctx, msg)
}
