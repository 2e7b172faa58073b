package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRecord(t *testing.T) {
	m := New(func() int { return 3 })

	m.ObserveRequest("/api/chat", http.MethodPost, http.StatusOK, 120*time.Millisecond)
	m.AssistantReply("nova", "ok")
	m.AssistantReply("nova", "error")
	m.ContactMessage("sent")
	m.SessionsSwept(2)
	m.SessionsSwept(0)
	m.SessionEvicted()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/chat", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.replies.WithLabelValues("nova", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.contact.WithLabelValues("sent")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsSwept))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsEvicted))
}

func TestHandlerExposesActiveSessions(t *testing.T) {
	m := New(func() int { return 7 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "portfolio_sessions_active 7"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", http.MethodGet, http.StatusOK, time.Millisecond)
	m.AssistantReply("nova", "ok")
	m.ContactMessage("sent")
	m.SessionsSwept(1)
	m.SessionEvicted()
}
