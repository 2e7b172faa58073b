package chat

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/chat"
	chatService "github.com/akash-shanmuganathan/portfolio/backend/internal/service/chat"
	"github.com/akash-shanmuganathan/portfolio/backend/pkg/utils"
)

type slowAssistant struct {
	delay time.Duration
}

func (a slowAssistant) Reply(ctx context.Context, _ string, _ []chat.Exchange, message string) (string, error) {
	select {
	case <-time.After(a.delay):
		return "re: " + message, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a slowAssistant) StreamReply(ctx context.Context, personaID string, history []chat.Exchange, message string) (*schema.StreamReader[*schema.Message], error) {
	reply, err := a.Reply(ctx, personaID, history, message)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(reply, nil)}), nil
}

func (a slowAssistant) Analyze(ctx context.Context, jdText string) (string, error) {
	return a.Reply(ctx, "", nil, jdText)
}

func TestWebSocketSurvivesRepliesSlowerThanReadTimeout(t *testing.T) {
	h := New(slowAssistant{delay: 500 * time.Millisecond}, chatService.NewMemoryStore(chatService.Options{}), nil,
		utils.NewErrorResponder(zap.NewNop(), false), nil, zap.NewNop())
	h.readTimeout = 200 * time.Millisecond
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/chat/ws?sessionId=slow", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var msg outgoingMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "session", msg.Type)

	for _, text := range []string{"first", "second"} {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "data": map[string]string{"text": text}}))

		var reply struct {
			Type string      `json:"type"`
			Data TextMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&reply))
		assert.Equal(t, "reply", reply.Type)
		assert.Equal(t, "re: "+text, reply.Data.Text)
	}
}
