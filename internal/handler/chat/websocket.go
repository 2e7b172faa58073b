package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akash-shanmuganathan/portfolio/backend/pkg/utils"
)

const (
	// wsReadTimeout is how long a connection may stay silent between client
	// messages. Time spent generating a reply does not count against it.
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsMaxMessage   = 64 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket聊天连接，未提供 sessionId 时生成一个
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) error {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if err := h.ensureCorpusReady(); err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("session_id", sessionID))
	logger.Debug("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})
	go pingLoop(ctx, conn)

	h.send(conn, logger, outgoingMessage{
		Type:      "session",
		SessionID: sessionID,
		Data:      map[string]any{"history": h.sessions.History(sessionID)},
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Info("websocket read failed", zap.Error(err))
			}
			return nil
		}
		// no reads happen while the reply is generated
		_ = conn.SetReadDeadline(time.Time{})

		switch msg.Type {
		case "message":
			h.handleSocketMessage(ctx, conn, logger, sessionID, msg.Data)
		case "history":
			h.send(conn, logger, outgoingMessage{
				Type:      "history",
				SessionID: sessionID,
				Data:      map[string]any{"history": h.sessions.History(sessionID)},
			})
		case "ping":
			h.send(conn, logger, outgoingMessage{Type: "pong", SessionID: sessionID})
		default:
			h.sendError(conn, logger, sessionID, "unsupported message type")
		}

		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *Handler) handleSocketMessage(ctx context.Context, conn *websocket.Conn, logger *zap.Logger, sessionID string, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		h.sendError(conn, logger, sessionID, "invalid message payload")
		return
	}
	message := strings.TrimSpace(text.Text)
	if message == "" {
		h.sendError(conn, logger, sessionID, "message is required")
		return
	}

	reply, err := h.converse(ctx, sessionID, message)
	if err != nil {
		logger.Error("websocket reply failed", zap.Error(err))
		h.sendError(conn, logger, sessionID, clientMessage(err))
		return
	}

	h.send(conn, logger, outgoingMessage{
		Type:      "reply",
		SessionID: sessionID,
		Data:      TextMessage{Text: reply},
	})
}

func (h *Handler) send(conn *websocket.Conn, logger *zap.Logger, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		logger.Debug("websocket write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (h *Handler) sendError(conn *websocket.Conn, logger *zap.Logger, sessionID, message string) {
	h.send(conn, logger, outgoingMessage{
		Type:      "error",
		SessionID: sessionID,
		Data:      map[string]string{"message": message},
	})
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func clientMessage(err error) string {
	var apiErr *utils.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Failed to generate response"
}
