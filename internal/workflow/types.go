package workflow

import (
	"time"

	"cortex/internal/insight"
	"cortex/pkg/retry"
)

// ActionType selects the handler that executes an orchestrator action.
type ActionType string

const (
	ActionAnalysis     ActionType = "analysis"
	ActionDecision     ActionType = "decision"
	ActionAutomation   ActionType = "automation"
	ActionNotification ActionType = "notification"
	ActionIntegration  ActionType = "integration"
	ActionValidation   ActionType = "validation"
)

// ActionStatus tracks one action's lifecycle within a workflow.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionInProgress ActionStatus = "in_progress"
	ActionCompleted  ActionStatus = "completed"
	ActionFailed     ActionStatus = "failed"
	ActionSkipped    ActionStatus = "skipped"
)

// Status is the workflow-level state machine:
// pending → in_progress → {completed | failed}; paused is reachable only
// through an external caller.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusPaused     Status = "paused"
)

// terminal reports whether a workflow has finished.
func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Priority ranks orchestrator actions.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// RetryPolicy configures automatic re-execution of a failed action.
type RetryPolicy struct {
	MaxAttempts int            `json:"max_attempts"`
	Backoff     time.Duration  `json:"backoff"`
	Strategy    retry.Strategy `json:"strategy,omitempty"`
}

// Action is one orchestrator-level unit of work.
type Action struct {
	ID           string                 `json:"id"`
	Type         ActionType             `json:"type"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	Status       ActionStatus           `json:"status"`
	Priority     Priority               `json:"priority"`
	Dependencies []string               `json:"dependencies,omitempty"`
	Config       map[string]interface{} `json:"config,omitempty"`
	RetryPolicy  RetryPolicy            `json:"retry_policy"`
	Timeout      time.Duration          `json:"timeout,omitempty"`
	Result       interface{}            `json:"result,omitempty"`
	Err          string                 `json:"error,omitempty"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}

// AutomationRule is a predicate/remediation pair applied to failed workflows
// in registration order.
type AutomationRule struct {
	ID        string
	Name      string
	Condition func(*State) bool
	Action    func(*State) error
	Priority  int
	Enabled   bool
}

// FromAgentActions converts agent-level actions into orchestrator actions at
// the agent↔orchestrator boundary. The two layers use deliberately distinct
// enums; this is the single place they meet.
func FromAgentActions(actions []insight.Action) []Action {
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		out = append(out, Action{
			ID:           a.ID,
			Type:         convertActionType(a.Type),
			Name:         a.Description,
			Description:  a.Description,
			Status:       convertActionStatus(a.Status),
			Priority:     convertPriority(a.Priority),
			Dependencies: a.Dependencies,
			Config: map[string]interface{}{
				"automation_potential": a.AutomationPotential,
				"ml_confidence":        a.MLConfidence,
				"impact":               a.Impact,
			},
		})
	}
	return out
}

func convertActionType(t insight.ActionType) ActionType {
	switch t {
	case insight.ActionTypeAnalysis, insight.ActionTypePrediction:
		return ActionAnalysis
	case insight.ActionTypeRecommendation:
		return ActionDecision
	case insight.ActionTypeAction, insight.ActionTypeAutomation:
		return ActionAutomation
	default:
		return ActionAnalysis
	}
}

func convertActionStatus(s insight.ActionStatus) ActionStatus {
	switch s {
	case insight.ActionStatusInProgress:
		return ActionInProgress
	case insight.ActionStatusCompleted:
		return ActionCompleted
	case insight.ActionStatusCancelled:
		return ActionSkipped
	default:
		return ActionPending
	}
}

func convertPriority(p insight.Priority) Priority {
	switch p {
	case insight.PriorityHigh:
		return PriorityHigh
	case insight.PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}
