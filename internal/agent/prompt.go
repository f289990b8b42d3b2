package agent

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"cortex/internal/adapters/analysis"
)

// buildAnalysisPrompt renders the business context and user message into the
// primary analysis request content.
func buildAnalysisPrompt(c BusinessContext, message string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Business context: %s %s company", c.CompanySize, c.Industry)
	fmt.Fprintf(&b, " with revenue of $%s, %s employees,",
		humanize.CommafWithDigits(c.KeyMetrics.Revenue, 0),
		humanize.Comma(int64(c.KeyMetrics.Employees)))
	fmt.Fprintf(&b, " %.1f%% market share, %.1f%% growth rate.\n",
		c.KeyMetrics.MarketShare, c.KeyMetrics.GrowthRate)

	if len(c.Priorities) > 0 {
		fmt.Fprintf(&b, "Strategic priorities: %s.\n", strings.Join(c.Priorities, ", "))
	}

	fmt.Fprintf(&b, "\nQuery: %s", message)
	return b.String()
}

// buildEnrichmentPrompt asks the LLM to compose a conversational response
// around the backend's structured findings.
func buildEnrichmentPrompt(message string, resp *analysis.Response) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Original query: %s\n\n", message)
	b.WriteString("Analysis findings:\n")

	if resp.Sentiment != nil {
		fmt.Fprintf(&b, "- Sentiment score: %.2f\n", resp.Sentiment.OverallSentiment)
	}
	if resp.Risks != nil {
		fmt.Fprintf(&b, "- Overall risk: %.2f\n", resp.Risks.OverallRisk)
	}
	for _, in := range resp.Insights {
		fmt.Fprintf(&b, "- %s: %s (confidence %.2f)\n", in.Type, in.Description, in.Confidence)
	}

	b.WriteString("\nProvide a comprehensive business analysis incorporating these findings.")
	return b.String()
}

// buildWorkflowPrompt asks the LLM to refine ML-suggested actions.
func buildWorkflowPrompt(analysisText string, predictions []analysis.Prediction) string {
	var b strings.Builder

	b.WriteString("Based on the analysis and ML suggestions below, produce prioritized workflow actions.\n\n")
	fmt.Fprintf(&b, "Analysis:\n%s\n\n", analysisText)

	if len(predictions) > 0 {
		b.WriteString("ML suggestions:\n")
		for _, p := range predictions {
			fmt.Fprintf(&b, "- [%s] %s (confidence %.2f)\n", p.Type, p.Description, p.Confidence)
		}
	}

	b.WriteString("\nReturn a JSON array of actions, each with: type " +
		"(analysis/prediction/recommendation/action/automation), description, " +
		"priority (high/medium/low), impact {efficiency, risk, revenue} in 0-1, " +
		"dependencies, automationPotential (0-1).")
	return b.String()
}

// buildInsightsPrompt asks the LLM to contextualize ML-generated insights.
func buildInsightsPrompt(analysisText string, mlInsights []analysis.ResponseInsight) string {
	var b strings.Builder

	b.WriteString("Contextualize these ML-generated insights for the business.\n\n")
	fmt.Fprintf(&b, "Analysis:\n%s\n\n", analysisText)

	if len(mlInsights) > 0 {
		b.WriteString("ML insights:\n")
		for _, in := range mlInsights {
			fmt.Fprintf(&b, "- [%s] %s\n", in.Type, in.Description)
		}
	}

	b.WriteString("\nReturn a JSON array, each entry with: type " +
		"(market/strategic/operational/risk/efficiency), content, " +
		"priority (high/medium/low), confidence (0-1), impact (0-1).")
	return b.String()
}

// formatAnalysis flattens the structured backend response into the
// descriptive text block returned to the caller.
func formatAnalysis(resp *analysis.Response) string {
	var sections []string

	if resp.MarketAnalysis != nil {
		var b strings.Builder
		b.WriteString("Market Analysis:")
		for _, t := range resp.MarketAnalysis.Trends {
			fmt.Fprintf(&b, "\n- Trend: %s", t)
		}
		for _, o := range resp.MarketAnalysis.Opportunities {
			fmt.Fprintf(&b, "\n- Opportunity: %s", o)
		}
		for _, t := range resp.MarketAnalysis.Threats {
			fmt.Fprintf(&b, "\n- Threat: %s", t)
		}
		if resp.MarketAnalysis.Summary != "" {
			fmt.Fprintf(&b, "\n%s", resp.MarketAnalysis.Summary)
		}
		sections = append(sections, b.String())
	}

	if len(resp.Recommendations) > 0 {
		var b strings.Builder
		b.WriteString("Recommendations:")
		for _, r := range resp.Recommendations {
			fmt.Fprintf(&b, "\n- %s", r)
		}
		sections = append(sections, b.String())
	}

	if len(resp.Insights) > 0 {
		var b strings.Builder
		b.WriteString("Key Insights:")
		for _, in := range resp.Insights {
			fmt.Fprintf(&b, "\n- %s", in.Description)
		}
		sections = append(sections, b.String())
	}

	if resp.ConfidenceScore > 0 || resp.SemanticRelevance > 0 {
		sections = append(sections, fmt.Sprintf("Confidence: %.0f%% | Relevance: %.0f%%",
			resp.ConfidenceScore*100, resp.SemanticRelevance*100))
	}

	if len(sections) == 0 {
		return "Analysis completed with no notable findings."
	}
	return strings.Join(sections, "\n\n")
}
