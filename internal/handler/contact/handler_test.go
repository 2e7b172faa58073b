package contact_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/handler/contact"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/metrics"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/middleware"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/mail"
	"github.com/akash-shanmuganathan/portfolio/backend/pkg/utils"
)

type fakeMailer struct {
	err  error
	sent []mail.Contact
}

func (f *fakeMailer) SendContact(_ context.Context, c mail.Contact) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, c)
	return nil
}

func serve(t *testing.T, mailer contact.Mailer, mws ...func(http.Handler) http.Handler) *httptest.Server {
	t.Helper()
	h := contact.New(mailer, utils.NewErrorResponder(zap.NewNop(), false), metrics.New(nil))
	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api.With(mws...))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func submit(t *testing.T, srv *httptest.Server, body string) (int, contact.Response) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/contact", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out contact.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const validBody = `{"name":"Ada","email":"ada@example.com","message":"Hello\nthere"}`

func TestContactSendsMail(t *testing.T) {
	mailer := &fakeMailer{}
	srv := serve(t, mailer)

	status, body := submit(t, srv, validBody)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)
	assert.Equal(t, "Message sent successfully!", body.Message)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Ada", mailer.sent[0].Name)
	assert.Equal(t, "Hello\nthere", mailer.sent[0].Message)
}

func TestContactValidation(t *testing.T) {
	srv := serve(t, &fakeMailer{})

	cases := map[string]string{
		"missing name":  `{"email":"ada@example.com","message":"hi"}`,
		"missing email": `{"name":"Ada","message":"hi"}`,
		"bad email":     `{"name":"Ada","email":"not-an-address","message":"hi"}`,
		"blank message": `{"name":"Ada","email":"ada@example.com","message":"  "}`,
		"bad json":      `{"name":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, resp := submit(t, srv, body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestContactFailureEnvelope(t *testing.T) {
	srv := serve(t, &fakeMailer{err: errors.New("smtp: 535 auth failed")})

	status, body := submit(t, srv, validBody)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, body.Success)
	assert.Equal(t, "Failed to send message", body.Message)
}

func TestContactWithoutMailCredentials(t *testing.T) {
	mailer, err := mail.New(config.MailConfig{})
	require.NoError(t, err)
	srv := serve(t, mailer)

	status, body := submit(t, srv, validBody)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Email service not configured", body.Message)
}

func TestContactRateLimited(t *testing.T) {
	srv := serve(t, &fakeMailer{}, middleware.NewRateLimiter(3).Middleware)

	// a corrected resubmission right after the first one still goes through
	for i := 0; i < 3; i++ {
		status, _ := submit(t, srv, validBody)
		require.Equal(t, http.StatusOK, status, "submission %d", i+1)
	}

	resp, err := http.Post(srv.URL+"/api/contact", "application/json", strings.NewReader(validBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
