package agent

// KeyMetrics is the numeric snapshot of a business supplied at construction.
type KeyMetrics struct {
	Revenue     float64 `json:"revenue"`
	Employees   int     `json:"employees"`
	MarketShare float64 `json:"market_share"`
	GrowthRate  float64 `json:"growth_rate"`
	Efficiency  float64 `json:"efficiency"`
	RiskScore   float64 `json:"risk_score"`
}

// BusinessContext is immutable per-agent configuration. It is supplied at
// construction and never mutated during operation.
type BusinessContext struct {
	Industry           string                 `json:"industry"`
	CompanySize        string                 `json:"company_size"`
	KeyMetrics         KeyMetrics             `json:"key_metrics"`
	Priorities         []string               `json:"priorities"`
	CompetitiveContext map[string]interface{} `json:"competitive_context,omitempty"`
	MarketPosition     map[string]interface{} `json:"market_position,omitempty"`
}

// AsMap renders the context as the generic map the analysis backend expects.
func (c BusinessContext) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"industry":     c.Industry,
		"company_size": c.CompanySize,
		"key_metrics": map[string]interface{}{
			"revenue":      c.KeyMetrics.Revenue,
			"employees":    c.KeyMetrics.Employees,
			"market_share": c.KeyMetrics.MarketShare,
			"growth_rate":  c.KeyMetrics.GrowthRate,
			"efficiency":   c.KeyMetrics.Efficiency,
			"risk_score":   c.KeyMetrics.RiskScore,
		},
		"priorities":          c.Priorities,
		"competitive_context": c.CompetitiveContext,
		"market_position":     c.MarketPosition,
	}
}
