package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
)

// ErrNotConfigured is returned when no mailbox credentials are set.
var ErrNotConfigured = errors.New("email service not configured")

// Contact is a submitted contact form.
type Contact struct {
	Name    string
	Email   string
	Message string
}

// Sender delivers a prepared message.
type Sender interface {
	Send(ctx context.Context, msg *gomail.Msg) error
}

// Mailer turns contact form submissions into emails to the portfolio owner.
type Mailer struct {
	from   string
	to     string
	sender Sender
}

// New creates a Mailer delivering over SMTP. The result reports
// ErrNotConfigured on every send when credentials are missing.
func New(cfg config.MailConfig) (*Mailer, error) {
	if !cfg.Enabled() {
		return &Mailer{}, nil
	}

	sender, err := NewSMTPSender(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithSender(cfg.Username, cfg.To, sender), nil
}

// NewWithSender creates a Mailer around an arbitrary transport.
func NewWithSender(from, to string, sender Sender) *Mailer {
	return &Mailer{from: from, to: to, sender: sender}
}

// Enabled reports whether the mailer can deliver.
func (m *Mailer) Enabled() bool {
	return m.sender != nil
}

// SendContact emails a contact submission. Replies go to the submitter.
func (m *Mailer) SendContact(ctx context.Context, c Contact) error {
	if !m.Enabled() {
		return ErrNotConfigured
	}

	msg, err := BuildContactMessage(m.from, m.to, c)
	if err != nil {
		return err
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}
	return nil
}

// BuildContactMessage prepares the email for a contact submission.
func BuildContactMessage(from, to string, c Contact) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if err := msg.ReplyTo(c.Email); err != nil {
		return nil, fmt.Errorf("invalid reply-to address: %w", err)
	}
	msg.Subject("Portfolio Contact: " + c.Name)

	htmlBody, err := contactHTML(c)
	if err != nil {
		return nil, err
	}
	msg.SetBodyString(gomail.TypeTextPlain, contactText(c))
	msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)

	return msg, nil
}

func contactText(c Contact) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s\n", c.Name, c.Email, c.Message)
}

var contactTemplate = template.Must(template.New("contact").Parse(
	`<h3>New Contact Form Submission</h3>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

func contactHTML(c Contact) (string, error) {
	lines := strings.Split(c.Message, "\n")
	escaped := make([]string, len(lines))
	for i, line := range lines {
		escaped[i] = template.HTMLEscapeString(line)
	}

	var buf bytes.Buffer
	err := contactTemplate.Execute(&buf, struct {
		Name    string
		Email   string
		Message template.HTML
	}{
		Name:    c.Name,
		Email:   c.Email,
		Message: template.HTML(strings.Join(escaped, "<br>")),
	})
	if err != nil {
		return "", fmt.Errorf("render contact email: %w", err)
	}
	return buf.String(), nil
}
