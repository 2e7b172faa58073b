package contact

import (
	"context"
	"errors"
	"net/http"
	netmail "net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/pkg/errors"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/metrics"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/mail"
	"github.com/akash-shanmuganathan/portfolio/backend/pkg/utils"
)

// Mailer delivers contact form submissions.
type Mailer interface {
	SendContact(ctx context.Context, c mail.Contact) error
}

// Handler 联系表单处理器
type Handler struct {
	mailer  Mailer
	errors  *utils.ErrorResponder
	metrics *metrics.Metrics
}

// New 创建联系表单处理器
func New(mailer Mailer, responder *utils.ErrorResponder, m *metrics.Metrics) *Handler {
	return &Handler{mailer: mailer, errors: responder, metrics: m}
}

// RegisterRoutes 注册联系表单路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/contact", h.errors.Wrap(h.handleContact))
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Response is the body of every /contact answer.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) error {
	var payload contactRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		return failure(http.StatusBadRequest, "Invalid request body", err)
	}

	c := mail.Contact{
		Name:    strings.TrimSpace(payload.Name),
		Email:   strings.TrimSpace(payload.Email),
		Message: strings.TrimSpace(payload.Message),
	}
	if c.Name == "" || c.Email == "" || c.Message == "" {
		return failure(http.StatusBadRequest, "name, email and message are required", nil)
	}
	if _, err := netmail.ParseAddress(c.Email); err != nil {
		return failure(http.StatusBadRequest, "email address is invalid", err)
	}

	if h.mailer == nil {
		h.metrics.ContactMessage("unconfigured")
		return failure(http.StatusInternalServerError, "Email service not configured", nil)
	}

	if err := h.mailer.SendContact(r.Context(), c); err != nil {
		if errors.Is(err, mail.ErrNotConfigured) {
			h.metrics.ContactMessage("unconfigured")
			return failure(http.StatusInternalServerError, "Email service not configured", err)
		}
		h.metrics.ContactMessage("error")
		return failure(http.StatusInternalServerError, "Failed to send message", pkgerrors.WithStack(err))
	}

	h.metrics.ContactMessage("sent")
	utils.RespondJSON(w, http.StatusOK, Response{Success: true, Message: "Message sent successfully!"})
	return nil
}

func failure(status int, message string, cause error) error {
	return &utils.APIError{
		Status:  status,
		Message: message,
		Payload: Response{Success: false, Message: message},
		Err:     cause,
	}
}
