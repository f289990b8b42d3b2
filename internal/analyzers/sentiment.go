package analyzers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cortex/internal/adapters/llm"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// SentimentAspect is a per-topic sentiment score.
type SentimentAspect struct {
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

// SentimentResult captures overall and per-aspect sentiment.
// Score is in [-1,1]; Magnitude in [0,1] reflects intensity.
type SentimentResult struct {
	Score         float64           `json:"score"`
	Magnitude     float64           `json:"magnitude"`
	Aspects       []SentimentAspect `json:"aspects,omitempty"`
	EmotionalTone string            `json:"emotional_tone"`
	Timestamp     time.Time         `json:"timestamp"`
}

// SentimentAnalyzer scores text sentiment via the LLM. No caching: sentiment
// input is rarely repeated verbatim.
type SentimentAnalyzer struct {
	llm llm.Client
	log *logger.Logger
}

// NewSentimentAnalyzer creates a sentiment analyzer.
func NewSentimentAnalyzer(client llm.Client) *SentimentAnalyzer {
	return &SentimentAnalyzer{
		llm: client,
		log: logger.Get().With("component", "sentiment_analyzer"),
	}
}

// AnalyzeSentiment scores the given text. Errors propagate to the caller.
func (s *SentimentAnalyzer) AnalyzeSentiment(ctx context.Context, text string) (*SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "sentiment text cannot be empty")
	}
	if s.llm == nil {
		return nil, errors.Wrap(errors.ErrNoDataSource, "sentiment analysis requires an LLM client")
	}

	prompt := fmt.Sprintf(
		"Score the sentiment of the following text.\n\nText:\n%s\n\n"+
			"Return a JSON object with: score (-1 to 1), magnitude (0 to 1), "+
			"emotional_tone (one word), aspects (array of {topic, score}).",
		text,
	)

	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, errors.Wrap(err, "sentiment completion")
	}

	result := parseSentiment(raw)
	result.Timestamp = time.Now()
	return result, nil
}

type sentimentJSON struct {
	Score         float64           `json:"score"`
	Magnitude     float64           `json:"magnitude"`
	EmotionalTone string            `json:"emotional_tone"`
	Aspects       []SentimentAspect `json:"aspects"`
}

// parseSentiment recovers from malformed output with a neutral result.
func parseSentiment(text string) *SentimentResult {
	var raw sentimentJSON
	if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
		return &SentimentResult{EmotionalTone: "neutral"}
	}

	score := raw.Score
	if score < -1 {
		score = -1
	}
	if score > 1 {
		score = 1
	}

	tone := raw.EmotionalTone
	if tone == "" {
		tone = "neutral"
	}

	return &SentimentResult{
		Score:         score,
		Magnitude:     clampUnit(raw.Magnitude),
		Aspects:       raw.Aspects,
		EmotionalTone: tone,
	}
}
