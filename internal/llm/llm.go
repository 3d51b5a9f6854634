package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/mantoumaster/ai-hedge-fund-API/config"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

var (
	ErrRateLimited     = errors.New("rate limited")
	ErrEmptyResponse   = errors.New("empty response")
	ErrNoJSON          = errors.New("no json found in response")
	ErrUnknownProvider = errors.New("unknown model provider")
)

// Options selects and configures a chat model.
type Options struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
}

// OptionsFromConfig reads the model settings from cfg. Empty provider and
// model arguments keep the configured values.
func OptionsFromConfig(cfg *config.Config, provider, modelName string) Options {
	opts := Options{
		Provider:  cfg.LLMProvider,
		Model:     cfg.LLMModel,
		BaseURL:   cfg.OpenAIBaseURL,
		MaxTokens: cfg.LLMMaxTokens,
	}
	if provider != "" {
		opts.Provider = strings.ToLower(provider)
	}
	if modelName != "" {
		opts.Model = modelName
	}
	switch opts.Provider {
	case ProviderOpenAI:
		opts.APIKey = cfg.OpenAIAPIKey
	case ProviderDeepSeek:
		opts.APIKey = cfg.DeepSeekAPIKey
	default:
		opts.APIKey = cfg.LLMAPIKey()
	}
	return opts
}

// NewChatModel builds the chat model for opts.Provider.
func NewChatModel(ctx context.Context, opts Options) (model.BaseChatModel, error) {
	switch opts.Provider {
	case ProviderOpenAI:
		cfg := &openai.ChatModelConfig{
			BaseURL: opts.BaseURL,
			APIKey:  opts.APIKey,
			Model:   opts.Model,
		}
		if opts.MaxTokens > 0 {
			maxTokens := opts.MaxTokens
			cfg.MaxTokens = &maxTokens
		}
		cm, err := openai.NewChatModel(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai model: %w", err)
		}
		return cm, nil

	case ProviderDeepSeek:
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    opts.APIKey,
			Model:     opts.Model,
			MaxTokens: opts.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek model: %w", err)
		}
		return cm, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
}

// IsRateLimit reports whether err looks like a provider rate limit.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "rate limit")
}
