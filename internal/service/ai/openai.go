package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
)

// OpenAIChatModel adapts OpenAI chat completions to eino's chat model contract.
type OpenAIChatModel struct {
	client   openai.Client
	model    string
	sampling sampling
}

var _ model.ChatModel = (*OpenAIChatModel)(nil)

// NewOpenAIChatModel creates an OpenAI-backed chat model.
func NewOpenAIChatModel(cfg config.AIConfig) *OpenAIChatModel {
	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	return &OpenAIChatModel{
		client:   openai.NewClient(opts...),
		model:    cfg.OpenAIModel,
		sampling: samplingFromConfig(cfg),
	}
}

// GetType names the adapter for eino callbacks.
func (m *OpenAIChatModel) GetType() string {
	return "OpenAI"
}

// Generate produces a single reply.
func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	resp, err := m.client.Chat.Completions.New(ctx, m.params(input, opts...))
	if err != nil {
		return nil, fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

// Stream produces the reply in chunks as OpenAI emits them.
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, m.params(input, opts...))

	reader, writer := schema.Pipe[*schema.Message](8)
	go func() {
		defer writer.Close()
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if closed := writer.Send(schema.AssistantMessage(chunk.Choices[0].Delta.Content, nil), nil); closed {
				return
			}
		}
		if err := stream.Err(); err != nil {
			writer.Send(nil, fmt.Errorf("openai stream: %w", err))
		}
	}()

	return reader, nil
}

// BindTools is not supported; the portfolio assistants do not call tools.
func (m *OpenAIChatModel) BindTools(_ []*schema.ToolInfo) error {
	return errToolsUnsupported
}

func (m *OpenAIChatModel) params(input []*schema.Message, opts ...model.Option) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.model),
		Messages: messages,
	}

	s := m.sampling.apply(opts...)
	if s.temperature != nil {
		params.Temperature = openai.Float(float64(*s.temperature))
	}
	if s.topP != nil {
		params.TopP = openai.Float(float64(*s.topP))
	}
	if s.maxTokens != nil {
		params.MaxTokens = openai.Int(int64(*s.maxTokens))
	}
	return params
}
