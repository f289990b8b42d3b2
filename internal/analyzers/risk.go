package analyzers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cortex/internal/adapters/llm"
	"cortex/internal/insight"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// Severity grades a risk factor.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityWeight returns the aggregation weight for a severity grade.
func severityWeight(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return 1.0
	case SeverityHigh:
		return 0.8
	case SeverityMedium:
		return 0.5
	case SeverityLow:
		return 0.2
	default:
		return 0.5
	}
}

// CoerceSeverity maps a raw string onto the severity enum, defaulting to medium.
func CoerceSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return Severity(strings.ToLower(strings.TrimSpace(s)))
	default:
		return SeverityMedium
	}
}

// RiskFactor is one identified risk with its likelihood and impact in [0,1].
type RiskFactor struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Probability float64  `json:"probability"`
	Impact      float64  `json:"impact"`
}

// MitigationStrategy pairs a risk with a remediation approach.
type MitigationStrategy struct {
	Risk     string           `json:"risk"`
	Strategy string           `json:"strategy"`
	Priority insight.Priority `json:"priority"`
}

// RiskMetadata qualifies how trustworthy an assessment is.
type RiskMetadata struct {
	Confidence      float64 `json:"confidence"`
	DataQuality     float64 `json:"data_quality"`
	ContextCoverage float64 `json:"context_coverage"`
}

// RiskCounts summarizes factors by severity.
type RiskCounts struct {
	Critical       int `json:"critical"`
	High           int `json:"high"`
	Medium         int `json:"medium"`
	Low            int `json:"low"`
	MitigatedRisks int `json:"mitigated_risks"`
}

// RiskAssessment is the full result of one risk analysis pass.
type RiskAssessment struct {
	OverallRiskScore     float64              `json:"overall_risk_score"`
	Factors              []RiskFactor         `json:"factors"`
	MitigationStrategies []MitigationStrategy `json:"mitigation_strategies"`
	Timestamp            time.Time            `json:"timestamp"`
	Metadata             RiskMetadata         `json:"metadata"`
	Summary              RiskCounts           `json:"summary"`
}

// RiskContext is the caller-supplied input for one assessment.
type RiskContext struct {
	Analysis       string                 `json:"analysis"`
	Context        map[string]interface{} `json:"context,omitempty"`
	HistoricalData []string               `json:"historical_data,omitempty"`
}

// RiskAnalyzer identifies business risk factors from analysis text via the LLM.
type RiskAnalyzer struct {
	llm   llm.Client
	cache *Cache
	log   *logger.Logger
}

// NewRiskAnalyzer creates a risk analyzer with a TTL cache.
func NewRiskAnalyzer(client llm.Client, store Store, ttl time.Duration) *RiskAnalyzer {
	return &RiskAnalyzer{
		llm:   client,
		cache: NewCache("risk", ttl, store),
		log:   logger.Get().With("component", "risk_analyzer"),
	}
}

// AnalyzeRisks produces a risk assessment for the given context, serving a
// cached assessment when one is fresh. Errors propagate to the caller.
func (r *RiskAnalyzer) AnalyzeRisks(ctx context.Context, rctx RiskContext) (*RiskAssessment, error) {
	key := r.cache.Key(rctx)

	var cached RiskAssessment
	if r.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	if r.llm == nil {
		return nil, errors.Wrap(errors.ErrNoDataSource, "risk analysis requires an LLM client")
	}

	factorsText, err := r.llm.Complete(ctx, buildFactorPrompt(rctx))
	if err != nil {
		return nil, errors.Wrap(err, "risk factor extraction")
	}
	factors, fromJSON := parseRiskFactors(factorsText)

	var strategies []MitigationStrategy
	if len(factors) > 0 {
		mitigationText, err := r.llm.Complete(ctx, buildMitigationPrompt(factors))
		if err != nil {
			return nil, errors.Wrap(err, "mitigation strategy generation")
		}
		strategies = parseMitigations(mitigationText)
	}

	assessment := &RiskAssessment{
		OverallRiskScore:     ComputeRiskScore(factors),
		Factors:              factors,
		MitigationStrategies: strategies,
		Timestamp:            time.Now(),
		Metadata:             buildRiskMetadata(rctx, factors, fromJSON),
		Summary:              summarize(factors, strategies),
	}

	r.cache.Set(ctx, key, assessment)
	r.log.Debug("Risk assessment complete",
		"factors", len(factors),
		"score", assessment.OverallRiskScore)

	return assessment, nil
}

// ComputeRiskScore aggregates factors into a single score: the mean of
// probability × impact × severity weight per factor, capped at 1.
// An empty factor list scores 0.
func ComputeRiskScore(factors []RiskFactor) float64 {
	if len(factors) == 0 {
		return 0
	}

	sum := 0.0
	for _, f := range factors {
		sum += f.Probability * f.Impact * severityWeight(f.Severity)
	}

	score := sum / float64(len(factors))
	if score > 1 {
		return 1
	}
	return score
}

func buildRiskMetadata(rctx RiskContext, factors []RiskFactor, fromJSON bool) RiskMetadata {
	confidence := 0.5
	if fromJSON {
		confidence = 0.8
	}

	quality := float64(len(factors)) / 5.0
	if quality > 1 {
		quality = 1
	}

	coverage := 0.5
	if rctx.Analysis != "" && len(rctx.Context) > 0 {
		coverage = 1.0
	}

	return RiskMetadata{
		Confidence:      confidence,
		DataQuality:     quality,
		ContextCoverage: coverage,
	}
}

func summarize(factors []RiskFactor, strategies []MitigationStrategy) RiskCounts {
	var counts RiskCounts
	for _, f := range factors {
		switch f.Severity {
		case SeverityCritical:
			counts.Critical++
		case SeverityHigh:
			counts.High++
		case SeverityMedium:
			counts.Medium++
		case SeverityLow:
			counts.Low++
		}
	}
	counts.MitigatedRisks = len(strategies)
	return counts
}

func buildFactorPrompt(rctx RiskContext) string {
	var b strings.Builder
	b.WriteString("Identify business risk factors in the following analysis.\n\n")
	b.WriteString("Analysis:\n")
	b.WriteString(rctx.Analysis)
	if len(rctx.HistoricalData) > 0 {
		b.WriteString("\n\nPrior decisions for context:\n")
		for _, d := range rctx.HistoricalData {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}
	b.WriteString("\nReturn a JSON array of factors, each with: category, description, ")
	b.WriteString("severity (critical/high/medium/low), probability (0-1), impact (0-1).")
	return b.String()
}

func buildMitigationPrompt(factors []RiskFactor) string {
	var b strings.Builder
	b.WriteString("Propose one mitigation strategy per risk factor below.\n\n")
	for _, f := range factors {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", f.Severity, f.Category, f.Description)
	}
	b.WriteString("\nReturn a JSON array, each entry with: risk, strategy, priority (high/medium/low).")
	return b.String()
}

type riskFactorJSON struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Probability float64 `json:"probability"`
	Impact      float64 `json:"impact"`
}

// parseRiskFactors never fails: non-JSON text degrades to one medium factor
// per non-empty line.
func parseRiskFactors(text string) ([]RiskFactor, bool) {
	text = stripFence(text)

	var raw []riskFactorJSON
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		factors := make([]RiskFactor, 0, len(raw))
		for _, r := range raw {
			factors = append(factors, RiskFactor{
				Category:    r.Category,
				Description: r.Description,
				Severity:    CoerceSeverity(r.Severity),
				Probability: clampUnit(r.Probability),
				Impact:      clampUnit(r.Impact),
			})
		}
		return factors, true
	}

	var factors []RiskFactor
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-•* \t"))
		if line == "" {
			continue
		}
		factors = append(factors, RiskFactor{
			Category:    "general",
			Description: line,
			Severity:    SeverityMedium,
			Probability: 0.5,
			Impact:      0.5,
		})
	}
	return factors, false
}

type mitigationJSON struct {
	Risk     string `json:"risk"`
	Strategy string `json:"strategy"`
	Priority string `json:"priority"`
}

func parseMitigations(text string) []MitigationStrategy {
	text = stripFence(text)

	var raw []mitigationJSON
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		strategies := make([]MitigationStrategy, 0, len(raw))
		for _, r := range raw {
			strategies = append(strategies, MitigationStrategy{
				Risk:     r.Risk,
				Strategy: r.Strategy,
				Priority: insight.CoercePriority(r.Priority),
			})
		}
		return strategies
	}

	var strategies []MitigationStrategy
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-•* \t"))
		if line == "" {
			continue
		}
		strategies = append(strategies, MitigationStrategy{
			Strategy: line,
			Priority: insight.PriorityMedium,
		})
	}
	return strategies
}

func stripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		return strings.TrimSpace(trimmed)
	}
	return text
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
