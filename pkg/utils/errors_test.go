package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func serve(responder *ErrorResponder, h HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	responder.Wrap(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondHidesDetailsInProduction(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	responder := NewErrorResponder(zap.New(core), false)

	rec := serve(responder, func(w http.ResponseWriter, r *http.Request) error {
		return Internal("Failed to generate response", pkgerrors.Wrap(errors.New("upstream 503"), "gemini"))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to generate response", body.Error)
	assert.Empty(t, body.Details)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.ErrorLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/chat", fields["route"])
	assert.Contains(t, fields["stack"], "errors_test.go")
}

func TestRespondIncludesDetailsInDevelopment(t *testing.T) {
	responder := NewErrorResponder(nil, true)

	rec := serve(responder, func(w http.ResponseWriter, r *http.Request) error {
		return Internal("Failed to generate response", errors.New("upstream 503"))
	})

	assert.Equal(t, "upstream 503", decodeBody(t, rec).Details)
}

func TestRespondUnknownErrorIs500(t *testing.T) {
	responder := NewErrorResponder(nil, false)

	rec := serve(responder, func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeBody(t, rec).Error)
}

func TestRespondUsesPayloadOverride(t *testing.T) {
	responder := NewErrorResponder(nil, false)

	rec := serve(responder, func(w http.ResponseWriter, r *http.Request) error {
		return &APIError{
			Status:  http.StatusInternalServerError,
			Message: "mail failed",
			Payload: map[string]interface{}{"success": false, "message": "Failed to send message"},
		}
	})

	assert.JSONEq(t, `{"success":false,"message":"Failed to send message"}`, rec.Body.String())
}

func TestBadRequestStatus(t *testing.T) {
	responder := NewErrorResponder(nil, false)

	rec := serve(responder, func(w http.ResponseWriter, r *http.Request) error {
		return BadRequest("message is required")
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "message is required", decodeBody(t, rec).Error)
}
