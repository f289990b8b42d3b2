package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"cortex/internal/metrics"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// GeminiClient generates completions via Google's Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	limiter     *rate.Limiter
	log         *logger.Logger
}

// NewGeminiClient creates a Gemini completion client using the official genai SDK.
func NewGeminiClient(apiKey, model string, temperature float64, maxTokens int, rps float64) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		maxTokens:   int32(maxTokens),
		limiter:     limiter,
		log:         logger.Get().With("component", "llm_gemini", "model", model),
	}, nil
}

// Name returns the provider identifier.
func (c *GeminiClient) Name() string { return "gemini" }

// Complete generates a text completion for the given prompt.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (text string, err error) {
	defer func() { metrics.RecordLLMCall(c.Name(), err) }()

	if err = c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "gemini rate limiter wait")
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(c.temperature),
			MaxOutputTokens: c.maxTokens,
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "gemini generate content")
	}

	text = resp.Text()
	if text == "" {
		return "", errors.Wrap(errors.ErrInternal, "gemini returned empty completion")
	}

	c.log.Debug("Generated completion",
		"prompt_length", len(prompt),
		"response_length", len(text),
		"duration", time.Since(start))

	return text, nil
}
