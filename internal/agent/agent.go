package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cortex/internal/adapters/analysis"
	"cortex/internal/adapters/llm"
	"cortex/internal/insight"
	"cortex/internal/metrics"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// Backend is the analysis service surface the agent depends on.
type Backend interface {
	AnalyzeData(ctx context.Context, req *analysis.Request) (*analysis.Response, error)
}

// Result is the per-turn output of AnalyzeInput.
type Result struct {
	Response   string             `json:"response"`
	Actions    []insight.Action   `json:"actions"`
	Insights   []insight.Insight  `json:"insights"`
	MLMetrics  map[string]float64 `json:"ml_metrics"`
	Confidence float64            `json:"confidence"`
}

// Agent is a stateful per-conversation coordinator. It produces one Result
// per input message by merging backend analysis, LLM output, and memory.
type Agent struct {
	id      string
	context BusinessContext
	memory  *Memory
	backend Backend
	llm     llm.Client
	parser  *insight.Parser
	log     *logger.Logger
}

// New creates an agent bound to one conversation.
func New(bctx BusinessContext, memory *Memory, backend Backend, llmClient llm.Client) *Agent {
	id := uuid.NewString()
	return &Agent{
		id:      id,
		context: bctx,
		memory:  memory,
		backend: backend,
		llm:     llmClient,
		parser:  insight.NewParser(),
		log:     logger.Get().With("component", "agent", "agent_id", id),
	}
}

// ID returns the agent's identifier.
func (a *Agent) ID() string { return a.id }

// Memory exposes the agent's conversation memory.
func (a *Agent) Memory() *Memory { return a.memory }

// Context returns the agent's business context.
func (a *Agent) Context() BusinessContext { return a.context }

// AnalyzeInput runs the full per-turn pipeline for one user message.
// Blank input fails before any external call. A primary analysis failure is
// fatal for the turn; each fan-out leg degrades independently to its zero
// value, so partial failure never aborts a turn.
func (a *Agent) AnalyzeInput(ctx context.Context, message string) (*Result, error) {
	start := time.Now()

	if strings.TrimSpace(message) == "" {
		metrics.AgentTurns.WithLabelValues("invalid_input").Inc()
		return nil, errors.Wrap(errors.ErrInvalidInput, "message cannot be empty")
	}

	primary, analysisText, err := a.performComplexAnalysis(ctx, message)
	if err != nil {
		metrics.AgentTurns.WithLabelValues("error").Inc()
		return nil, errors.Wrapf(err, "failed to analyze input: %s", message)
	}

	var (
		wg         sync.WaitGroup
		actions    []insight.Action
		insights   []insight.Insight
		mlMetrics  map[string]float64
		confidence float64
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		var legErr error
		actions, legErr = a.generateWorkflowActions(ctx, analysisText, primary)
		if legErr != nil {
			a.log.Warn("Workflow action generation failed, continuing with none", "error", legErr)
			metrics.AgentFanoutFailures.WithLabelValues("actions").Inc()
			actions = []insight.Action{}
		}
	}()
	go func() {
		defer wg.Done()
		var legErr error
		insights, legErr = a.extractInsights(ctx, analysisText)
		if legErr != nil {
			a.log.Warn("Insight extraction failed, continuing with none", "error", legErr)
			metrics.AgentFanoutFailures.WithLabelValues("insights").Inc()
			insights = []insight.Insight{}
		}
	}()
	go func() {
		defer wg.Done()
		var legErr error
		mlMetrics, confidence, legErr = a.requestMetrics(ctx, message, analysisText)
		if legErr != nil {
			a.log.Warn("Metrics request failed, continuing with defaults", "error", legErr)
			metrics.AgentFanoutFailures.WithLabelValues("metrics").Inc()
			mlMetrics = map[string]float64{}
			confidence = 0
		}
	}()
	wg.Wait()

	a.updateMemory(message, analysisText, actions, insights)

	metrics.AgentTurns.WithLabelValues("success").Inc()
	metrics.AgentTurnDuration.Observe(time.Since(start).Seconds())

	return &Result{
		Response:   analysisText,
		Actions:    actions,
		Insights:   insights,
		MLMetrics:  mlMetrics,
		Confidence: confidence,
	}, nil
}

// performComplexAnalysis runs the primary backend call and formats its
// structured response. An unavailable LLM degrades to the formatted text.
func (a *Agent) performComplexAnalysis(ctx context.Context, message string) (*analysis.Response, string, error) {
	req := &analysis.Request{
		Context: a.context.AsMap(),
		Data: []analysis.RequestItem{{
			Type:    "analysis",
			Content: buildAnalysisPrompt(a.context, message),
			Parameters: map[string]interface{}{
				"useML":            true,
				"includeSentiment": true,
				"includeRisks":     true,
				"includeMarket":    true,
				"includeTrends":    true,
			},
		}},
		Parameters: map[string]interface{}{
			"useML":            true,
			"includeSentiment": true,
			"includeRisks":     true,
		},
	}

	resp, err := a.backend.AnalyzeData(ctx, req)
	if err != nil {
		return nil, "", err
	}

	text := formatAnalysis(resp)

	if a.llm != nil {
		enriched, err := a.llm.Complete(ctx, buildEnrichmentPrompt(message, resp))
		if err != nil {
			a.log.Warn("LLM enrichment failed, using formatted analysis only", "error", err)
		} else {
			text = enriched + "\n\n" + text
		}
	}

	return resp, text, nil
}

// generateWorkflowActions combines parsed backend/LLM actions with the
// deterministic derivation from the primary structured response.
func (a *Agent) generateWorkflowActions(ctx context.Context, analysisText string, primary *analysis.Response) ([]insight.Action, error) {
	req := &analysis.Request{
		Context: a.context.AsMap(),
		Data: []analysis.RequestItem{{
			Type:    "workflow",
			Content: analysisText,
			Parameters: map[string]interface{}{
				"actionTypes":    []string{"analysis", "prediction", "recommendation", "action", "automation"},
				"includeMetrics": true,
			},
		}},
		Parameters: map[string]interface{}{
			"actionTypes": []string{"analysis", "prediction", "recommendation", "action", "automation"},
		},
	}

	resp, err := a.backend.AnalyzeData(ctx, req)
	if err != nil {
		return nil, err
	}

	var actions []insight.Action
	if a.llm != nil {
		refined, err := a.llm.Complete(ctx, buildWorkflowPrompt(analysisText, resp.Predictions))
		if err != nil {
			a.log.Warn("LLM action refinement failed, using predictions directly", "error", err)
			actions = actionsFromPredictions(resp.Predictions)
		} else {
			actions = a.parser.ParseActions(refined, resp.Predictions)
		}
	} else {
		actions = actionsFromPredictions(resp.Predictions)
	}

	return append(actions, deriveActions(primary)...), nil
}

// actionsFromPredictions converts ML predictions directly into actions when
// no LLM is available to refine them.
func actionsFromPredictions(predictions []analysis.Prediction) []insight.Action {
	now := time.Now().UnixMilli()
	actions := make([]insight.Action, 0, len(predictions))
	for i, p := range predictions {
		actions = append(actions, insight.Action{
			ID:           fmt.Sprintf("action_%d_%d", now, i),
			Type:         insight.CoerceActionType(p.Type),
			Description:  p.Description,
			Priority:     insight.PriorityMedium,
			Status:       insight.ActionStatusPending,
			MLConfidence: p.Confidence,
		})
	}
	return actions
}

// deriveActions applies the fixed derivation rules to the structured
// primary response.
func deriveActions(resp *analysis.Response) []insight.Action {
	if resp == nil {
		return nil
	}

	now := time.Now().UnixMilli()
	var actions []insight.Action

	if resp.MarketAnalysis != nil && len(resp.MarketAnalysis.Trends) > 0 {
		actions = append(actions, insight.Action{
			ID:                  fmt.Sprintf("market_analysis_%d", now),
			Type:                insight.ActionTypeAnalysis,
			Description:         "Analyze market trends: " + strings.Join(resp.MarketAnalysis.Trends, "; "),
			Priority:            insight.PriorityHigh,
			Status:              insight.ActionStatusPending,
			AutomationPotential: 0.7,
		})
	}

	for i, rec := range resp.Recommendations {
		actions = append(actions, insight.Action{
			ID:                  fmt.Sprintf("recommendation_%d_%d", now, i),
			Type:                insight.ActionTypeRecommendation,
			Description:         rec,
			Priority:            insight.PriorityMedium,
			Status:              insight.ActionStatusPending,
			AutomationPotential: 0.5,
		})
	}

	if resp.Risks != nil && resp.Risks.OverallRisk > 0.5 {
		actions = append(actions, insight.Action{
			ID:                  fmt.Sprintf("risk_mitigation_%d", now),
			Type:                insight.ActionTypeAction,
			Description:         fmt.Sprintf("Mitigate identified risks (overall risk %.2f)", resp.Risks.OverallRisk),
			Priority:            insight.PriorityHigh,
			Status:              insight.ActionStatusPending,
			AutomationPotential: 0.3,
		})
	}

	return actions
}

func (a *Agent) extractInsights(ctx context.Context, analysisText string) ([]insight.Insight, error) {
	req := &analysis.Request{
		Context: a.context.AsMap(),
		Data: []analysis.RequestItem{{
			Type:    "insights",
			Content: analysisText,
			Parameters: map[string]interface{}{
				"insightTypes":            []string{"strategic", "operational", "risk", "market", "efficiency"},
				"includeConfidenceScores": true,
			},
		}},
		Parameters: map[string]interface{}{
			"insightTypes": []string{"strategic", "operational", "risk", "market", "efficiency"},
		},
	}

	resp, err := a.backend.AnalyzeData(ctx, req)
	if err != nil {
		return nil, err
	}

	if a.llm != nil {
		contextualized, err := a.llm.Complete(ctx, buildInsightsPrompt(analysisText, resp.Insights))
		if err != nil {
			a.log.Warn("LLM insight contextualization failed, using ML insights directly", "error", err)
		} else {
			return a.parser.ParseInsights(contextualized, resp.Insights), nil
		}
	}

	return insightsFromBackend(resp.Insights), nil
}

func insightsFromBackend(raw []analysis.ResponseInsight) []insight.Insight {
	now := time.Now()
	insights := make([]insight.Insight, 0, len(raw))
	for _, r := range raw {
		insights = append(insights, insight.Insight{
			Type:       insight.CoerceType(r.Type),
			Content:    r.Description,
			Confidence: r.Confidence,
			Priority:   insight.PriorityMedium,
			Timestamp:  now,
			Source:     "ml-analysis",
			Impact:     r.Impact,
		})
	}
	return insights
}

func (a *Agent) requestMetrics(ctx context.Context, message, analysisText string) (map[string]float64, float64, error) {
	req := &analysis.Request{
		Context: a.context.AsMap(),
		Data: []analysis.RequestItem{{
			Type:    "metrics",
			Content: message,
			Parameters: map[string]interface{}{
				"analysis":          analysisText,
				"includeConfidence": true,
			},
		}},
		Parameters: map[string]interface{}{"includeConfidence": true},
	}

	resp, err := a.backend.AnalyzeData(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	m := resp.Metrics
	if m == nil {
		m = map[string]float64{}
	}
	return m, resp.Confidence, nil
}

// updateMemory appends the turn, insights, and action-typed decisions.
func (a *Agent) updateMemory(message, response string, actions []insight.Action, insights []insight.Insight) {
	a.memory.AppendTurn("user", message)
	a.memory.AppendTurn("assistant", response)
	a.memory.AppendInsights(insights)

	var decisions []Decision
	now := time.Now()
	for _, action := range actions {
		if action.Type != insight.ActionTypeAction {
			continue
		}
		impact, _ := json.Marshal(action.Impact)
		decisions = append(decisions, Decision{
			Timestamp: now,
			Context:   message,
			Decision:  action.Description,
			Impact:    string(impact),
		})
	}
	a.memory.AppendDecisions(decisions)
}
