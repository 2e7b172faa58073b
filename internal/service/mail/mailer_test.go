package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
)

type captureSender struct {
	sent []*gomail.Msg
	err  error
}

func (s *captureSender) Send(_ context.Context, msg *gomail.Msg) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestSendContactBuildsEmail(t *testing.T) {
	sender := &captureSender{}
	mailer := NewWithSender("me@example.com", "inbox@example.com", sender)

	err := mailer.SendContact(context.Background(), Contact{
		Name:    "Jane",
		Email:   "jane@example.com",
		Message: "Hello",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"Portfolio Contact: Jane"}, msg.GetGenHeader(gomail.HeaderSubject))
	assert.Contains(t, strings.Join(msg.GetGenHeader(gomail.HeaderReplyTo), ","), "jane@example.com")
	assert.Contains(t, strings.Join(msg.GetAddrHeaderString(gomail.HeaderTo), ","), "inbox@example.com")
}

func TestSendContactPropagatesFailure(t *testing.T) {
	boom := errors.New("smtp: 535 authentication failed")
	mailer := NewWithSender("me@example.com", "me@example.com", &captureSender{err: boom})

	err := mailer.SendContact(context.Background(), Contact{Name: "Jane", Email: "jane@example.com", Message: "Hi"})
	assert.ErrorIs(t, err, boom)
}

func TestSendContactRejectsBadReplyTo(t *testing.T) {
	mailer := NewWithSender("me@example.com", "me@example.com", &captureSender{})

	err := mailer.SendContact(context.Background(), Contact{Name: "Jane", Email: "not an address", Message: "Hi"})
	assert.Error(t, err)
}

func TestUnconfiguredMailer(t *testing.T) {
	mailer, err := New(config.MailConfig{})
	require.NoError(t, err)

	assert.False(t, mailer.Enabled())
	err = mailer.SendContact(context.Background(), Contact{Name: "Jane", Email: "jane@example.com", Message: "Hi"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestContactHTMLEscapesMarkup(t *testing.T) {
	body, err := contactHTML(Contact{
		Name:    "<b>Jane</b>",
		Email:   "jane@example.com",
		Message: "line one\n<script>alert(1)</script>",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "&lt;b&gt;Jane&lt;/b&gt;")
	assert.Contains(t, body, "line one<br>&lt;script&gt;")
	assert.NotContains(t, body, "<script>")
}

func TestContactText(t *testing.T) {
	text := contactText(Contact{Name: "Jane", Email: "jane@example.com", Message: "Hi"})
	assert.Equal(t, "Name: Jane\nEmail: jane@example.com\n\nMessage:\nHi\n", text)
}
