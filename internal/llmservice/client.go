package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
)

var (
	// ErrModelUnavailable marks network or API failures of the completion
	// provider. Not retried here; retry policy belongs to the caller.
	ErrModelUnavailable = errors.New("language model unavailable")
	// ErrRateLimited marks an HTTP 429 from the provider.
	ErrRateLimited = errors.New("language model rate limited")
)

// CompletionClient generates a completion for a prompt. Implementations
// are stateless and may be shared across sessions.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible chat completion API.
type OpenAIClient struct {
	llm     *openai.LLM
	timeout time.Duration
}

func NewOpenAIClient(cfg *config.LLMConfig) (*OpenAIClient, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.APIKey(), "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &OpenAIClient{
		llm:     llm,
		timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	log.Debug().Int("prompt_chars", len(prompt)).Float64("temperature", temperature).Msg("calling completion model")
	res, err := c.llm.GenerateContent(callCtx, messages,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", classify(err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrModelUnavailable)
	}
	return res.Choices[0].Content, nil
}

// classify maps provider errors onto the error kinds callers branch on.
// langchaingo surfaces HTTP failures as opaque errors, so the status code
// is matched textually.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
}
