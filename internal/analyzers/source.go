package analyzers

import (
	"context"
	"fmt"
	"strings"

	"cortex/internal/adapters/analysis"
	"cortex/pkg/errors"
)

// analysisBackend is the slice of the analysis client the source needs.
type analysisBackend interface {
	AnalyzeData(ctx context.Context, req *analysis.Request) (*analysis.Response, error)
}

// BackendSource feeds a market pulse section from the analysis backend.
type BackendSource struct {
	backend analysisBackend
	section string
}

// NewBackendSource creates a data source that asks the analysis backend for
// raw material on the given section.
func NewBackendSource(backend analysisBackend, section string) *BackendSource {
	return &BackendSource{backend: backend, section: section}
}

func (s *BackendSource) Name() string {
	return fmt.Sprintf("analysis-backend:%s", s.section)
}

// Fetch returns the backend's view of the section as plain text.
func (s *BackendSource) Fetch(ctx context.Context) (string, error) {
	resp, err := s.backend.AnalyzeData(ctx, &analysis.Request{
		Data: []analysis.RequestItem{{Type: "market_data", Content: s.section}},
	})
	if err != nil {
		return "", err
	}

	var parts []string
	if resp.MarketAnalysis != nil {
		if resp.MarketAnalysis.Summary != "" {
			parts = append(parts, resp.MarketAnalysis.Summary)
		}
		for _, t := range resp.MarketAnalysis.Trends {
			parts = append(parts, "Trend: "+t)
		}
		for _, o := range resp.MarketAnalysis.Opportunities {
			parts = append(parts, "Opportunity: "+o)
		}
		for _, t := range resp.MarketAnalysis.Threats {
			parts = append(parts, "Threat: "+t)
		}
	}
	parts = append(parts, resp.Recommendations...)

	if len(parts) == 0 {
		return "", errors.Wrapf(errors.ErrUnavailable, "backend returned no market data for section %s", s.section)
	}
	return strings.Join(parts, "\n"), nil
}
