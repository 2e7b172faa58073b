package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/akash-shanmuganathan/portfolio/backend/internal/config"
)

var errToolsUnsupported = errors.New("tool calling is not supported by this model adapter")

// NewChatModel creates the chat model for the configured provider.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.ChatModel, error) {
	if !cfg.Enabled() {
		return nil, &NotConfiguredError{Reason: cfg.MissingCredentials()}
	}

	switch cfg.Provider {
	case config.ProviderArk:
		return newArkChatModel(ctx, cfg)
	case config.ProviderOpenAI:
		return NewOpenAIChatModel(cfg), nil
	case config.ProviderGemini:
		return NewGeminiChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

func newArkChatModel(ctx context.Context, cfg config.AIConfig) (model.ChatModel, error) {
	s := samplingFromConfig(cfg)

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.ArkBaseURL,
		Region:      cfg.ArkRegion,
		APIKey:      cfg.ArkAPIKey,
		AccessKey:   cfg.ArkAccessKey,
		SecretKey:   cfg.ArkSecretKey,
		Model:       cfg.ArkModel,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		TopP:        s.topP,
	})
}

// sampling collects generation knobs shared by the adapters. Per-call
// model options override the configured defaults.
type sampling struct {
	temperature *float32
	topP        *float32
	maxTokens   *int
}

func samplingFromConfig(cfg config.AIConfig) sampling {
	var s sampling
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		s.temperature = &val
	}
	if cfg.TopP != nil {
		val := float32(*cfg.TopP)
		s.topP = &val
	}
	if cfg.MaxTokens != nil {
		val := *cfg.MaxTokens
		s.maxTokens = &val
	}
	return s
}

func (s sampling) apply(opts ...model.Option) sampling {
	common := model.GetCommonOptions(&model.Options{
		Temperature: s.temperature,
		TopP:        s.topP,
		MaxTokens:   s.maxTokens,
	}, opts...)
	return sampling{
		temperature: common.Temperature,
		topP:        common.TopP,
		maxTokens:   common.MaxTokens,
	}
}
