package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/metrics"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/chat"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/persona"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/ai"
	chatService "github.com/akash-shanmuganathan/portfolio/backend/internal/service/chat"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/service/corpus"
	"github.com/akash-shanmuganathan/portfolio/backend/pkg/utils"
)

const maxSessionIDLength = 128

// Assistant answers portfolio questions.
type Assistant interface {
	Reply(ctx context.Context, personaID string, history []chat.Exchange, message string) (string, error)
	StreamReply(ctx context.Context, personaID string, history []chat.Exchange, message string) (*schema.StreamReader[*schema.Message], error)
	Analyze(ctx context.Context, jdText string) (string, error)
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	assistant   Assistant
	sessions    chatService.Store
	corpus      corpus.Source
	errors      *utils.ErrorResponder
	metrics     *metrics.Metrics
	logger      *zap.Logger
	// readTimeout bounds client silence on the chat socket.
	readTimeout time.Duration
}

// New 创建聊天处理器
func New(assistant Assistant, sessions chatService.Store, source corpus.Source, responder *utils.ErrorResponder, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		assistant:   assistant,
		sessions:    sessions,
		corpus:      source,
		errors:      responder,
		metrics:     m,
		logger:      logger,
		readTimeout: wsReadTimeout,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.errors.Wrap(h.handleChat))
	r.Post("/analyze-jd", h.errors.Wrap(h.handleAnalyze))
	r.Get("/chat/stream", h.errors.Wrap(h.handleStream))
	r.Get("/chat/ws", h.errors.Wrap(h.handleWebSocket))
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type analyzeRequest struct {
	JDText    string `json:"jdText"`
	SessionID string `json:"sessionId"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

// handleChat 处理多轮对话：语料 + 会话历史 + 当前消息
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) error {
	var payload chatRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		return err
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		return utils.BadRequest("message is required")
	}
	if err := validateSessionID(payload.SessionID); err != nil {
		return err
	}
	if err := h.ensureCorpusReady(); err != nil {
		return err
	}

	reply, err := h.converse(r.Context(), payload.SessionID, message)
	if err != nil {
		return err
	}

	utils.RespondJSON(w, http.StatusOK, replyResponse{Reply: reply})
	return nil
}

// handleAnalyze 处理招聘者模式的职位描述分析，单轮调用，不读取历史
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) error {
	var payload analyzeRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		return err
	}

	jdText := strings.TrimSpace(payload.JDText)
	if jdText == "" {
		return utils.BadRequest("jdText is required")
	}
	if err := validateSessionID(payload.SessionID); err != nil {
		return err
	}
	if err := h.ensureCorpusReady(); err != nil {
		return err
	}

	reply, err := h.assistant.Analyze(r.Context(), jdText)
	h.observeReply(persona.AnalystID, err)
	if err != nil {
		return assistantError(err)
	}

	// recorded so a follow-up chat message can refer to the analysis
	h.sessions.Append(payload.SessionID, jdText, reply)

	utils.RespondJSON(w, http.StatusOK, replyResponse{Reply: reply})
	return nil
}

// converse runs one chat turn and stores it. The model call happens outside
// the store lock, so two concurrent turns on one session may interleave.
func (h *Handler) converse(ctx context.Context, sessionID, message string) (string, error) {
	history := h.sessions.History(sessionID)

	reply, err := h.assistant.Reply(ctx, persona.NovaID, history, message)
	h.observeReply(persona.NovaID, err)
	if err != nil {
		return "", assistantError(err)
	}

	h.sessions.Append(sessionID, message, reply)
	return reply, nil
}

func (h *Handler) ensureCorpusReady() error {
	if h.corpus == nil || h.corpus.Ready() {
		return nil
	}
	return &utils.APIError{Status: http.StatusServiceUnavailable, Message: "context is still loading, retry shortly"}
}

func (h *Handler) observeReply(personaID string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.metrics.AssistantReply(personaID, outcome)
}

func validateSessionID(sessionID string) error {
	if len(sessionID) > maxSessionIDLength {
		return utils.BadRequest("sessionId is too long")
	}
	return nil
}

// assistantError maps model failures onto the HTTP error envelope.
func assistantError(err error) error {
	var notConfigured *ai.NotConfiguredError
	if errors.As(err, &notConfigured) {
		return utils.Internal(notConfigured.Reason, err)
	}
	return utils.Internal("Failed to generate response", pkgerrors.WithStack(err))
}
