package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/chat"
	"github.com/akash-shanmuganathan/portfolio/backend/internal/model/persona"
)

// NotConfiguredError reports that the generative model cannot be used
// because credentials or the model name are missing.
type NotConfiguredError struct {
	Reason string
}

func (e *NotConfiguredError) Error() string {
	return e.Reason
}

// Service encapsulates the portfolio assistants.
type Service struct {
	prompts *PromptBuilder
	cfg     config.AIConfig
	logger  *zap.Logger
	chain   compose.Runnable[map[string]any, *schema.Message]
	// unavailable is set when no model could be created; every call fails with it.
	unavailable *NotConfiguredError
}

// NewService creates the AI service for the configured provider.
func NewService(ctx context.Context, cfg config.AIConfig, prompts *PromptBuilder, logger *zap.Logger) (*Service, error) {
	chatModel, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg, prompts, logger)
}

// NewServiceWithModel builds the service around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig, prompts *PromptBuilder, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		prompts: prompts,
		cfg:     cfg,
		logger:  logger,
		chain:   runnable,
	}, nil
}

// NewUnavailableService returns a Service whose every call fails with reason.
// The server keeps running without a model; chat routes answer 500.
func NewUnavailableService(reason string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger:      logger,
		unavailable: &NotConfiguredError{Reason: reason},
	}
}

// Available reports whether a model is wired.
func (s *Service) Available() bool {
	return s.unavailable == nil
}

// StreamingEnabled 指示是否开启 SSE 流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Reply answers message as personaID, given the prior conversation.
func (s *Service) Reply(ctx context.Context, personaID string, history []chat.Exchange, message string) (string, error) {
	if s.unavailable != nil {
		return "", s.unavailable
	}

	input, err := s.buildChainInput(personaID, history, message)
	if err != nil {
		return "", err
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	s.logger.Debug("generated response",
		zap.String("persona", personaID),
		zap.Int("history", len(history)),
		zap.Int("length", len(response.Content)))
	return response.Content, nil
}

// Analyze runs the one-shot job description analysis against the corpus.
func (s *Service) Analyze(ctx context.Context, jdText string) (string, error) {
	return s.Reply(ctx, persona.AnalystID, nil, BuildAnalysisQuery(jdText))
}

// StreamReply streams the answer. When streaming is disabled the full reply
// is delivered as a single chunk.
func (s *Service) StreamReply(ctx context.Context, personaID string, history []chat.Exchange, message string) (*schema.StreamReader[*schema.Message], error) {
	if s.unavailable != nil {
		return nil, s.unavailable
	}

	if !s.StreamingEnabled() {
		reply, err := s.Reply(ctx, personaID, history, message)
		if err != nil {
			return nil, err
		}
		return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(reply, nil)}), nil
	}

	input, err := s.buildChainInput(personaID, history, message)
	if err != nil {
		return nil, err
	}

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(personaID string, history []chat.Exchange, message string) (map[string]any, error) {
	system, err := s.prompts.BuildSystemPrompt(personaID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"system":  system,
		"history": buildHistoryMessages(history),
		"query":   message,
	}, nil
}
