package ai

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/chat"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/persona"
)

type staticCorpus string

func (c staticCorpus) Text() string { return string(c) }
func (c staticCorpus) Ready() bool  { return true }

type recordingModel struct {
	mu     sync.Mutex
	inputs [][]*schema.Message
	reply  string
	chunks []string
	err    error
}

func (m *recordingModel) record(input []*schema.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, input)
}

func (m *recordingModel) lastInput() []*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputs[len(m.inputs)-1]
}

func (m *recordingModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.record(input)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *recordingModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.record(input)
	if m.err != nil {
		return nil, m.err
	}
	chunks := make([]*schema.Message, 0, len(m.chunks))
	for _, c := range m.chunks {
		chunks = append(chunks, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func (m *recordingModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func newTestService(t *testing.T, m *recordingModel, stream bool) *Service {
	t.Helper()
	prompts := NewPromptBuilder("Akash", persona.NewMemoryStore(persona.Seed()), staticCorpus("=== RESUME ===\nBuilt a voice assistant in Go."))
	svc, err := NewServiceWithModel(context.Background(), m, config.AIConfig{StreamResponse: stream}, prompts, nil)
	require.NoError(t, err)
	return svc
}

func TestReplyBuildsPromptFromCorpusAndHistory(t *testing.T) {
	m := &recordingModel{reply: "Neural link established."}
	svc := newTestService(t, m, false)

	history := []chat.Exchange{
		{Role: chat.RoleUser, Text: "who are you?"},
		{Role: chat.RoleAssistant, Text: "I am NOVA."},
	}
	reply, err := svc.Reply(context.Background(), persona.NovaID, history, "what did he build?")
	require.NoError(t, err)
	assert.Equal(t, "Neural link established.", reply)

	input := m.lastInput()
	require.Len(t, input, 4)
	assert.Equal(t, schema.System, input[0].Role)
	assert.Contains(t, input[0].Content, "Built a voice assistant in Go.")
	assert.Contains(t, input[0].Content, "**NOVA**")
	assert.Equal(t, schema.User, input[1].Role)
	assert.Equal(t, "who are you?", input[1].Content)
	assert.Equal(t, schema.Assistant, input[2].Role)
	assert.Equal(t, schema.User, input[3].Role)
	assert.Equal(t, "what did he build?", input[3].Content)
}

func TestAnalyzeUsesAnalystPersonaWithoutHistory(t *testing.T) {
	m := &recordingModel{reply: "Match score: 82"}
	svc := newTestService(t, m, false)

	reply, err := svc.Analyze(context.Background(), "Senior Go engineer, Kubernetes")
	require.NoError(t, err)
	assert.Equal(t, "Match score: 82", reply)

	input := m.lastInput()
	require.Len(t, input, 2)
	assert.Contains(t, input[0].Content, "Job Description Match Analyst")
	assert.Contains(t, input[1].Content, "Senior Go engineer, Kubernetes")
}

func TestReplyWrapsModelErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := newTestService(t, &recordingModel{err: boom}, false)

	_, err := svc.Reply(context.Background(), persona.NovaID, nil, "hi")
	assert.ErrorIs(t, err, boom)
}

func TestReplyUnknownPersona(t *testing.T) {
	svc := newTestService(t, &recordingModel{reply: "x"}, false)

	_, err := svc.Reply(context.Background(), "ghost", nil, "hi")
	assert.Error(t, err)
}

func TestUnavailableServiceReportsReason(t *testing.T) {
	svc := NewUnavailableService("Gemini API Key not configured", nil)

	_, err := svc.Reply(context.Background(), persona.NovaID, nil, "hi")
	var notConfigured *NotConfiguredError
	require.ErrorAs(t, err, &notConfigured)
	assert.Equal(t, "Gemini API Key not configured", notConfigured.Reason)
	assert.False(t, svc.Available())

	_, err = svc.StreamReply(context.Background(), persona.NovaID, nil, "hi")
	assert.ErrorAs(t, err, &notConfigured)
}

func TestStreamReplyEmitsChunks(t *testing.T) {
	svc := newTestService(t, &recordingModel{chunks: []string{"Accessing ", "archives."}}, true)

	stream, err := svc.StreamReply(context.Background(), persona.NovaID, nil, "hi")
	require.NoError(t, err)
	defer stream.Close()

	var got strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got.WriteString(chunk.Content)
	}
	assert.Equal(t, "Accessing archives.", got.String())
}

func TestStreamReplyFallsBackToSingleChunk(t *testing.T) {
	svc := newTestService(t, &recordingModel{reply: "whole reply"}, false)

	stream, err := svc.StreamReply(context.Background(), persona.NovaID, nil, "hi")
	require.NoError(t, err)
	defer stream.Close()

	chunk, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "whole reply", chunk.Content)
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewChatModelWithoutCredentials(t *testing.T) {
	_, err := NewChatModel(context.Background(), config.AIConfig{Provider: config.ProviderGemini, GeminiModel: "gemini-2.0-flash-lite"})

	var notConfigured *NotConfiguredError
	require.ErrorAs(t, err, &notConfigured)
	assert.Equal(t, "Gemini API Key not configured", notConfigured.Reason)
}
