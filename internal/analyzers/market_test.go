package analyzers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/pkg/errors"
)

type staticSource struct {
	name string
	data string
}

func (s *staticSource) Name() string                              { return s.name }
func (s *staticSource) Fetch(_ context.Context) (string, error) { return s.data, nil }

func registerAll(m *MarketPulseAnalyzer) {
	m.RegisterDataSource(SectionTrends, &staticSource{name: "trend-feed", data: "AI spend up 20%"})
	m.RegisterDataSource(SectionSentiment, &staticSource{name: "news-feed", data: "coverage mostly positive"})
	m.RegisterDataSource(SectionCompetition, &staticSource{name: "rival-feed", data: "two new entrants"})
}

func sectionJSON() string {
	return `{"summary": "expansion continues", "score": 0.7, "signals": ["ai adoption"], "confidence": 0.8}`
}

func TestCurrentPulse_AllSections(t *testing.T) {
	client := &fakeLLM{responses: []string{sectionJSON(), sectionJSON(), sectionJSON()}}
	analyzer := NewMarketPulseAnalyzer(client, NewMemoryStore(16), 15*time.Minute)
	registerAll(analyzer)

	pulse, err := analyzer.CurrentPulse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "expansion continues", pulse.Trends.Summary)
	assert.Equal(t, 0.7, pulse.Sentiment.Score)
	assert.InDelta(t, 0.8, pulse.Confidence, 1e-9)
	assert.False(t, pulse.Timestamp.IsZero())
}

func TestCurrentPulse_MissingDataSource(t *testing.T) {
	client := &fakeLLM{responses: []string{sectionJSON()}}
	analyzer := NewMarketPulseAnalyzer(client, NewMemoryStore(16), 15*time.Minute)
	analyzer.RegisterDataSource(SectionTrends, &staticSource{name: "trend-feed", data: "x"})
	// sentiment and competition sources missing

	_, err := analyzer.CurrentPulse(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoDataSource))
}

func TestCurrentPulse_SectionsServedFromCache(t *testing.T) {
	client := &fakeLLM{responses: []string{
		sectionJSON(), sectionJSON(), sectionJSON(),
	}}
	analyzer := NewMarketPulseAnalyzer(client, NewMemoryStore(16), 15*time.Minute)
	registerAll(analyzer)

	_, err := analyzer.CurrentPulse(context.Background())
	require.NoError(t, err)

	_, err = analyzer.CurrentPulse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls, "second pulse must reuse cached sections")
}

func TestParseMarketSection_MalformedFallsBack(t *testing.T) {
	section := parseMarketSection("not json at all")
	assert.Equal(t, "not json at all", section.Summary)
	assert.Equal(t, 0.5, section.Score)
	assert.Equal(t, 0.4, section.Confidence)
}
