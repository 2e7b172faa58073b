package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
)

// GeminiChatModel adapts the Gemini API to eino's chat model contract so it
// can sit in the same chain as the Ark model.
type GeminiChatModel struct {
	client   *genai.Client
	model    string
	sampling sampling
}

var _ model.ChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel creates a Gemini-backed chat model.
func NewGeminiChatModel(ctx context.Context, cfg config.AIConfig) (*GeminiChatModel, error) {
	client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	return &GeminiChatModel{
		client:   client,
		model:    cfg.GeminiModel,
		sampling: samplingFromConfig(cfg),
	}, nil
}

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, &NotConfiguredError{Reason: "Gemini API Key not configured"}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// GetType names the adapter for eino callbacks.
func (m *GeminiChatModel) GetType() string {
	return "Gemini"
}

// Generate produces a single reply.
func (m *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	contents, cfg := m.request(input, opts...)

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, errors.New("gemini returned an empty response")
	}
	return schema.AssistantMessage(text, nil), nil
}

// Stream produces the reply in chunks as Gemini emits them.
func (m *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	contents, cfg := m.request(input, opts...)

	reader, writer := schema.Pipe[*schema.Message](8)
	go func() {
		defer writer.Close()
		for resp, err := range m.client.Models.GenerateContentStream(ctx, m.model, contents, cfg) {
			if err != nil {
				writer.Send(nil, fmt.Errorf("gemini stream: %w", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if closed := writer.Send(schema.AssistantMessage(text, nil), nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

// BindTools is not supported; the portfolio assistants do not call tools.
func (m *GeminiChatModel) BindTools(_ []*schema.ToolInfo) error {
	return errToolsUnsupported
}

func (m *GeminiChatModel) request(input []*schema.Message, opts ...model.Option) ([]*genai.Content, *genai.GenerateContentConfig) {
	var system []string
	contents := make([]*genai.Content, 0, len(input))
	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	s := m.sampling.apply(opts...)
	cfg := &genai.GenerateContentConfig{
		Temperature: s.temperature,
		TopP:        s.topP,
	}
	if s.maxTokens != nil {
		cfg.MaxOutputTokens = int32(*s.maxTokens)
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(strings.Join(system, "\n\n"))},
		}
	}

	return contents, cfg
}
