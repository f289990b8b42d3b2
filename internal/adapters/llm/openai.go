package llm

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"cortex/internal/metrics"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// OpenAIClient generates completions using the official OpenAI Go SDK.
type OpenAIClient struct {
	client      openai.Client // NewClient returns Client (not *Client)
	model       string
	temperature float64
	maxTokens   int64
	limiter     *rate.Limiter
	log         *logger.Logger
}

// NewOpenAIClient creates an OpenAI completion client.
func NewOpenAIClient(apiKey, model string, temperature float64, maxTokens int, rps float64) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "openai API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &OpenAIClient{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   int64(maxTokens),
		limiter:     limiter,
		log:         logger.Get().With("component", "llm_openai", "model", model),
	}, nil
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string { return "openai" }

// Complete generates a text completion for the given prompt.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (text string, err error) {
	defer func() { metrics.RecordLLMCall(c.Name(), err) }()

	if err = c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "openai rate limiter wait")
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       c.model,
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(c.maxTokens),
	})
	if err != nil {
		return "", errors.Wrap(err, "openai chat completion")
	}

	if len(resp.Choices) == 0 {
		return "", errors.Wrap(errors.ErrInternal, "openai returned no choices")
	}

	text = resp.Choices[0].Message.Content
	c.log.Debug("Generated completion",
		"prompt_length", len(prompt),
		"response_length", len(text),
		"tokens_used", resp.Usage.TotalTokens,
		"duration", time.Since(start))

	return text, nil
}
