package insight

import (
	"strings"
	"time"
)

// Type classifies an insight.
type Type string

const (
	TypeMarket      Type = "market"
	TypeStrategic   Type = "strategic"
	TypeOperational Type = "operational"
	TypeRisk        Type = "risk"
	TypeEfficiency  Type = "efficiency"
)

// CoerceType maps a raw string onto the insight type enum.
// Values outside the enum collapse to TypeOperational.
func CoerceType(s string) Type {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeMarket, TypeStrategic, TypeOperational, TypeRisk, TypeEfficiency:
		return Type(strings.ToLower(strings.TrimSpace(s)))
	default:
		return TypeOperational
	}
}

// Priority ranks insights and actions.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// CoercePriority maps a raw string onto the priority enum, defaulting to medium.
func CoercePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(strings.ToLower(strings.TrimSpace(s)))
	default:
		return PriorityMedium
	}
}

// ActionType classifies an agent-level workflow action.
type ActionType string

const (
	ActionTypeAnalysis       ActionType = "analysis"
	ActionTypePrediction     ActionType = "prediction"
	ActionTypeRecommendation ActionType = "recommendation"
	ActionTypeAction         ActionType = "action"
	ActionTypeAutomation     ActionType = "automation"
)

// CoerceActionType maps a raw string onto the action type enum, defaulting to action.
func CoerceActionType(s string) ActionType {
	switch ActionType(strings.ToLower(strings.TrimSpace(s))) {
	case ActionTypeAnalysis, ActionTypePrediction, ActionTypeRecommendation,
		ActionTypeAction, ActionTypeAutomation:
		return ActionType(strings.ToLower(strings.TrimSpace(s)))
	default:
		return ActionTypeAction
	}
}

// ActionStatus tracks an agent-level action's lifecycle.
type ActionStatus string

const (
	ActionStatusPending    ActionStatus = "pending"
	ActionStatusInProgress ActionStatus = "in_progress"
	ActionStatusCompleted  ActionStatus = "completed"
	ActionStatusCancelled  ActionStatus = "cancelled"
)

// CoerceActionStatus maps a raw string onto the status enum, defaulting to pending.
func CoerceActionStatus(s string) ActionStatus {
	switch ActionStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ActionStatusPending, ActionStatusInProgress, ActionStatusCompleted, ActionStatusCancelled:
		return ActionStatus(strings.ToLower(strings.TrimSpace(s)))
	default:
		return ActionStatusPending
	}
}

// Impact scores an action's expected effect on each business dimension, all in [0,1].
type Impact struct {
	Efficiency float64 `json:"efficiency"`
	Risk       float64 `json:"risk"`
	Revenue    float64 `json:"revenue"`
}

// Action is an agent-level workflow action produced once per analysis turn.
type Action struct {
	ID                  string                 `json:"id"`
	Type                ActionType             `json:"type"`
	Description         string                 `json:"description"`
	Priority            Priority               `json:"priority"`
	Status              ActionStatus           `json:"status"`
	Impact              Impact                 `json:"impact"`
	Dependencies        []string               `json:"dependencies,omitempty"`
	AutomationPotential float64                `json:"automation_potential"`
	MLConfidence        float64                `json:"ml_confidence"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// Insight is a typed, scored observation attached to agent memory.
// Never mutated after creation.
type Insight struct {
	Type       Type      `json:"type"`
	Content    string    `json:"content"`
	Confidence float64   `json:"confidence"`
	Priority   Priority  `json:"priority"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	Impact     float64   `json:"impact,omitempty"`
}
