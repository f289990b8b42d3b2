package analyzers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cortex/internal/adapters/llm"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// Market pulse sections; each requires a registered data source.
const (
	SectionTrends      = "trends"
	SectionSentiment   = "sentiment"
	SectionCompetition = "competition"
)

var pulseSections = []string{SectionTrends, SectionSentiment, SectionCompetition}

// DataSource supplies raw market data for one pulse section.
type DataSource interface {
	Name() string
	Fetch(ctx context.Context) (string, error)
}

// MarketSection is the analyzed view of one pulse section.
type MarketSection struct {
	Summary    string   `json:"summary"`
	Score      float64  `json:"score"`
	Signals    []string `json:"signals,omitempty"`
	Confidence float64  `json:"confidence"`
}

// MarketInsight aggregates the three pulse sections.
type MarketInsight struct {
	Trends      MarketSection `json:"trends"`
	Sentiment   MarketSection `json:"sentiment"`
	Competition MarketSection `json:"competition"`
	Confidence  float64       `json:"confidence"`
	Timestamp   time.Time     `json:"timestamp"`
}

// MarketPulseAnalyzer builds a market pulse from registered data sources,
// caching each section for a fixed TTL.
type MarketPulseAnalyzer struct {
	llm     llm.Client
	cache   *Cache
	mu      sync.RWMutex
	sources map[string]DataSource
	log     *logger.Logger
}

// NewMarketPulseAnalyzer creates a market pulse analyzer with a TTL cache.
func NewMarketPulseAnalyzer(client llm.Client, store Store, ttl time.Duration) *MarketPulseAnalyzer {
	return &MarketPulseAnalyzer{
		llm:     client,
		cache:   NewCache("market", ttl, store),
		sources: make(map[string]DataSource),
		log:     logger.Get().With("component", "market_pulse_analyzer"),
	}
}

// RegisterDataSource binds a data source to a pulse section.
func (m *MarketPulseAnalyzer) RegisterDataSource(section string, src DataSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[section] = src
}

// CurrentPulse assembles the market insight. A missing data source for any
// section is an error that propagates to the caller.
func (m *MarketPulseAnalyzer) CurrentPulse(ctx context.Context) (*MarketInsight, error) {
	sections := make(map[string]MarketSection, len(pulseSections))

	for _, name := range pulseSections {
		section, err := m.analyzeSection(ctx, name)
		if err != nil {
			return nil, err
		}
		sections[name] = *section
	}

	confidence := 0.0
	for _, s := range sections {
		confidence += s.Confidence
	}
	confidence /= float64(len(sections))

	return &MarketInsight{
		Trends:      sections[SectionTrends],
		Sentiment:   sections[SectionSentiment],
		Competition: sections[SectionCompetition],
		Confidence:  confidence,
		Timestamp:   time.Now(),
	}, nil
}

func (m *MarketPulseAnalyzer) analyzeSection(ctx context.Context, name string) (*MarketSection, error) {
	m.mu.RLock()
	src, ok := m.sources[name]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoDataSource, "no data source registered for section %q", name)
	}

	key := m.cache.Key(map[string]string{"section": name, "source": src.Name()})
	var cached MarketSection
	if m.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s data from %s", name, src.Name())
	}

	if m.llm == nil {
		return nil, errors.Wrap(errors.ErrNoDataSource, "market pulse requires an LLM client")
	}

	prompt := fmt.Sprintf(
		"Summarize the current market %s from the data below.\n\nData:\n%s\n\n"+
			"Return a JSON object with: summary, score (0-1), signals (array of strings), confidence (0-1).",
		name, data,
	)

	raw, err := m.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, errors.Wrapf(err, "market %s completion", name)
	}

	section := parseMarketSection(raw)
	m.cache.Set(ctx, key, section)

	m.log.Debug("Market section analyzed", "section", name, "score", section.Score)
	return section, nil
}

// parseMarketSection recovers from malformed output by treating the whole
// text as the summary with conservative scores.
func parseMarketSection(text string) *MarketSection {
	var section MarketSection
	if err := json.Unmarshal([]byte(stripFence(text)), &section); err != nil {
		return &MarketSection{Summary: text, Score: 0.5, Confidence: 0.4}
	}
	section.Score = clampUnit(section.Score)
	section.Confidence = clampUnit(section.Confidence)
	return &section
}
