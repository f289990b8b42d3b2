package analysis

// Request is the payload sent to the analysis backend.
type Request struct {
	Context    map[string]interface{} `json:"context"`
	Data       []RequestItem          `json:"data"`
	Parameters map[string]interface{} `json:"parameters"`
}

// RequestItem is one unit of data submitted for analysis.
// Type selects the backend pipeline: analysis|workflow|insights|metrics.
type RequestItem struct {
	Type       string                 `json:"type"`
	Content    string                 `json:"content,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Response is the superset of fields the analysis backend may return.
// Backends vary; missing fields stay at their zero value and are never an error.
type Response struct {
	MarketAnalysis    *MarketAnalysis    `json:"market_analysis,omitempty"`
	Recommendations   []string           `json:"recommendations,omitempty"`
	Insights          []ResponseInsight  `json:"insights,omitempty"`
	Predictions       []Prediction       `json:"predictions,omitempty"`
	Sentiment         *SentimentSummary  `json:"sentiment,omitempty"`
	Risks             *RiskSummary       `json:"risks,omitempty"`
	Metrics           map[string]float64 `json:"metrics,omitempty"`
	Confidence        float64            `json:"confidence,omitempty"`
	ConfidenceScore   float64            `json:"confidence_score,omitempty"`
	SemanticRelevance float64            `json:"semantic_relevance,omitempty"`
}

// MarketAnalysis carries the backend's market view.
type MarketAnalysis struct {
	Trends        []string `json:"trends,omitempty"`
	Opportunities []string `json:"opportunities,omitempty"`
	Threats       []string `json:"threats,omitempty"`
	Summary       string   `json:"summary,omitempty"`
}

// ResponseInsight is one backend-generated insight.
type ResponseInsight struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Impact      float64 `json:"impact,omitempty"`
}

// Prediction is one ML-origin prediction with its model confidence.
type Prediction struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// SentimentSummary aggregates sentiment over the submitted content.
type SentimentSummary struct {
	OverallSentiment float64           `json:"overall_sentiment"`
	Aspects          []SentimentAspect `json:"aspects,omitempty"`
}

// SentimentAspect is a per-topic sentiment score.
type SentimentAspect struct {
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

// RiskSummary aggregates backend risk factors.
type RiskSummary struct {
	OverallRisk float64          `json:"overall_risk"`
	Factors     []RiskFactorItem `json:"factors,omitempty"`
}

// RiskFactorItem is one backend risk factor.
type RiskFactorItem struct {
	Category    string  `json:"category"`
	Severity    float64 `json:"severity"`
	Probability float64 `json:"probability"`
}

// Fallback returns the documented empty-fields, zero-confidence response used
// when the backend is unavailable after retries.
func Fallback() *Response {
	return &Response{}
}
