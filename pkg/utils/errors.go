package utils

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// APIError carries the status and client-facing message of a failed request.
type APIError struct {
	Status  int
	Message string
	// Payload replaces the default error envelope when set.
	Payload interface{}
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// BadRequest is a 400 with message.
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

// Internal is a 500 with message wrapping cause.
func Internal(message string, cause error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Message: message, Err: cause}
}

// HandlerFunc is an HTTP handler that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorResponder is the single place request errors are logged and rendered.
type ErrorResponder struct {
	logger *zap.Logger
	// exposeDetails adds the underlying error text to responses (development only).
	exposeDetails bool
}

// NewErrorResponder creates an ErrorResponder.
func NewErrorResponder(logger *zap.Logger, exposeDetails bool) *ErrorResponder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorResponder{logger: logger, exposeDetails: exposeDetails}
}

// Wrap adapts h to http.HandlerFunc, routing returned errors through Respond.
func (e *ErrorResponder) Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			e.Respond(w, r, err)
		}
	}
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Log records err with request details and returns the error it maps to.
func (e *ErrorResponder) Log(r *http.Request, err error) *APIError {
	apiErr := &APIError{Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
	var target *APIError
	if errors.As(err, &target) {
		apiErr = target
	}

	fields := []zap.Field{
		zap.Time("timestamp", time.Now().UTC()),
		zap.Int("status", apiErr.Status),
		zap.String("method", r.Method),
		zap.String("route", routePattern(r)),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	}
	var st stackTracer
	if errors.As(err, &st) {
		fields = append(fields, zap.String("stack", fmt.Sprintf("%+v", st.StackTrace())))
	}

	if apiErr.Status >= http.StatusInternalServerError {
		e.logger.Error(apiErr.Message, fields...)
	} else {
		e.logger.Info(apiErr.Message, fields...)
	}
	return apiErr
}

// Respond logs err with request details and writes the JSON error envelope.
func (e *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := e.Log(r, err)

	if apiErr.Payload != nil {
		RespondJSON(w, apiErr.Status, apiErr.Payload)
		return
	}

	body := ErrorBody{Error: apiErr.Message}
	if e.exposeDetails && apiErr.Err != nil {
		body.Details = apiErr.Err.Error()
	}
	RespondJSON(w, apiErr.Status, body)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
