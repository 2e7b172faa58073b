package chat

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/persona"
	"github.com/akash-shanmuganathan/portfolio/backend/pkg/utils"
)

// StreamEvent is one Server-Sent Events frame of a streamed reply.
type StreamEvent struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleStream 以SSE形式推送回复：start, delta*, message, end；中途失败推送 error
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	message := strings.TrimSpace(query.Get("message"))
	sessionID := query.Get("sessionId")
	if message == "" {
		return utils.BadRequest("message is required")
	}
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if err := h.ensureCorpusReady(); err != nil {
		return err
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		return utils.Internal("streaming unsupported", nil)
	}

	history := h.sessions.History(sessionID)
	stream, err := h.assistant.StreamReply(r.Context(), persona.NovaID, history, message)
	if err != nil {
		h.observeReply(persona.NovaID, err)
		return assistantError(err)
	}
	defer stream.Close()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEChunk(w, flusher, StreamEvent{Event: "start", SessionID: sessionID}); err != nil {
		return nil
	}

	var reply strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.observeReply(persona.NovaID, err)
			h.logger.Error("assistant stream failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			_ = utils.SendSSEChunk(w, flusher, StreamEvent{
				Event:     "error",
				SessionID: sessionID,
				Error:     "Failed to generate response",
			})
			return nil
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		reply.WriteString(chunk.Content)
		if err := utils.SendSSEChunk(w, flusher, StreamEvent{
			Event:     "delta",
			SessionID: sessionID,
			Content:   chunk.Content,
		}); err != nil {
			// client went away; nothing is recorded for a partial reply
			h.logger.Debug("stream client disconnected", zap.String("session_id", sessionID), zap.Error(err))
			return nil
		}
	}

	h.observeReply(persona.NovaID, nil)
	h.sessions.Append(sessionID, message, reply.String())

	_ = utils.SendSSEChunk(w, flusher, StreamEvent{Event: "message", SessionID: sessionID, Content: reply.String()})
	_ = utils.SendSSEChunk(w, flusher, StreamEvent{Event: "end", SessionID: sessionID, Finished: true})
	return nil
}
