package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
)

const defaultMaxRetries = 3

// CallOptions controls one structured generation.
type CallOptions[T any] struct {
	// Caller labels logs and metrics, usually the agent id.
	Caller     string
	MaxRetries int
	// Default is returned when every attempt fails.
	Default func() T
}

// Call asks cm for a JSON answer and decodes it into T. Generation or
// parse failures are retried up to MaxRetries attempts, after which the
// default is returned. Call never fails.
func Call[T any](ctx context.Context, cm model.BaseChatModel, msgs []*schema.Message, opts CallOptions[T]) T {
	log := logger.Component("llm").With("caller", opts.Caller)
	attempts := opts.MaxRetries
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}

	fallback := func() T {
		metrics.RecordLLMCall(opts.Caller, "default", 0)
		if opts.Default != nil {
			return opts.Default()
		}
		var zero T
		return zero
	}

	if cm == nil {
		log.Warn("no chat model configured, using default")
		return fallback()
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		out, err := generateJSON[T](ctx, cm, msgs)
		if err == nil {
			metrics.RecordLLMCall(opts.Caller, "success", time.Since(start))
			return out
		}

		status := "error"
		if IsRateLimit(err) {
			status = "rate_limited"
		}
		metrics.RecordLLMCall(opts.Caller, status, time.Since(start))
		log.Warnw("structured generation failed", "attempt", attempt, "max", attempts, "error", err)
	}

	log.Errorw("all generation attempts failed, using default", "attempts", attempts)
	return fallback()
}

func generateJSON[T any](ctx context.Context, cm model.BaseChatModel, msgs []*schema.Message) (T, error) {
	var out T
	text, err := Text(ctx, cm, msgs)
	if err != nil {
		return out, err
	}
	doc, err := ExtractJSON(text)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// Text runs one plain generation and returns the trimmed content.
func Text(ctx context.Context, cm model.BaseChatModel, msgs []*schema.Message) (string, error) {
	if cm == nil {
		return "", fmt.Errorf("no chat model: %w", ErrEmptyResponse)
	}
	resp, err := cm.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
