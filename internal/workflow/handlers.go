package workflow

import (
	"context"
	"fmt"

	"cortex/internal/adapters/analysis"
	"cortex/internal/adapters/llm"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
)

// AnalysisBackend is the analysis service surface the handlers depend on.
type AnalysisBackend interface {
	AnalyzeData(ctx context.Context, req *analysis.Request) (*analysis.Response, error)
}

// RegisterDefaultHandlers wires the full action-type registry against the
// real collaborators. The LLM client may be nil; the decision handler then
// falls back to a deterministic result.
func RegisterDefaultHandlers(o *Orchestrator, backend AnalysisBackend, llmClient llm.Client) {
	log := logger.Get().With("component", "workflow_handlers")

	o.RegisterHandler(ActionAnalysis, func(ctx context.Context, action *Action, wf *State) (interface{}, error) {
		content := action.Description
		if c, ok := action.Config["content"].(string); ok && c != "" {
			content = c
		}

		resp, err := backend.AnalyzeData(ctx, &analysis.Request{
			Data: []analysis.RequestItem{{Type: "analysis", Content: content}},
		})
		if err != nil {
			return nil, err
		}

		return map[string]interface{}{
			"confidence_score": resp.ConfidenceScore,
			"recommendations":  resp.Recommendations,
			"insights":         len(resp.Insights),
		}, nil
	})

	o.RegisterHandler(ActionDecision, func(ctx context.Context, action *Action, wf *State) (interface{}, error) {
		if llmClient == nil {
			return map[string]interface{}{
				"decision":  "approved",
				"rationale": "no decision model configured, default approval",
			}, nil
		}

		prompt := fmt.Sprintf(
			"Decide whether to proceed with: %s\nPrior step results: %v\n"+
				"Answer with a short decision and one-sentence rationale.",
			action.Description, wf.Results,
		)
		text, err := llmClient.Complete(ctx, prompt)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"decision": text}, nil
	})

	o.RegisterHandler(ActionAutomation, func(ctx context.Context, action *Action, wf *State) (interface{}, error) {
		task := action.Name
		if t, ok := action.Config["task"].(string); ok && t != "" {
			task = t
		}
		log.Info("Automation task executed", "workflow_id", wf.ID, "task", task)
		return map[string]interface{}{"executed": true, "task": task}, nil
	})

	o.RegisterHandler(ActionNotification, func(ctx context.Context, action *Action, wf *State) (interface{}, error) {
		channel := "log"
		if c, ok := action.Config["channel"].(string); ok && c != "" {
			channel = c
		}
		log.Info("Notification dispatched",
			"workflow_id", wf.ID,
			"channel", channel,
			"message", action.Description)
		return map[string]interface{}{"delivered": true, "channel": channel}, nil
	})

	o.RegisterHandler(ActionIntegration, func(ctx context.Context, action *Action, wf *State) (interface{}, error) {
		target, ok := action.Config["target"].(string)
		if !ok || target == "" {
			return nil, errors.Wrapf(errors.ErrConfiguration, "integration action %s has no target", action.ID)
		}
		log.Info("Integration invoked", "workflow_id", wf.ID, "target", target)
		return map[string]interface{}{"integrated": true, "target": target}, nil
	})

	o.RegisterHandler(ActionValidation, func(ctx context.Context, action *Action, wf *State) (interface{}, error) {
		required, _ := action.Config["required"].([]interface{})
		for _, r := range required {
			key, ok := r.(string)
			if !ok {
				continue
			}
			if _, present := wf.Results[key]; !present {
				return nil, errors.Wrapf(errors.ErrInvalidInput,
					"validation failed: missing result for %q", key)
			}
		}
		return map[string]interface{}{"valid": true, "checked": len(required)}, nil
	})
}
