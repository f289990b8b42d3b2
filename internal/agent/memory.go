package agent

import (
	"sync"
	"time"

	"cortex/internal/adapters/config"
	"cortex/internal/insight"
)

// Turn is one conversation exchange entry.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Decision records an action-typed workflow action the agent committed to.
type Decision struct {
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context"`
	Decision  string    `json:"decision"`
	Impact    string    `json:"impact"`
}

// Memory is the per-agent conversation state. Appends only; each sequence is
// bounded by config with the oldest entries dropped past the cap. Guarded by
// a mutex: the agent's fan-out join appends from a single goroutine, but API
// handlers may read concurrently.
type Memory struct {
	mu        sync.RWMutex
	turns     []Turn
	insights  []insight.Insight
	decisions []Decision
	learnings []string

	maxTurns     int
	maxInsights  int
	maxDecisions int
}

// NewMemory creates bounded conversation memory.
func NewMemory(cfg config.MemoryConfig) *Memory {
	return &Memory{
		maxTurns:     cfg.MaxTurns,
		maxInsights:  cfg.MaxInsights,
		maxDecisions: cfg.MaxDecisions,
	}
}

// AppendTurn records one conversation turn.
func (m *Memory) AppendTurn(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Turn{Role: role, Content: content, Timestamp: time.Now()})
	if m.maxTurns > 0 && len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}
}

// AppendInsights records new insights.
func (m *Memory) AppendInsights(insights []insight.Insight) {
	if len(insights) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights = append(m.insights, insights...)
	if m.maxInsights > 0 && len(m.insights) > m.maxInsights {
		m.insights = m.insights[len(m.insights)-m.maxInsights:]
	}
}

// AppendDecisions records decisions derived from action-typed actions.
func (m *Memory) AppendDecisions(decisions []Decision) {
	if len(decisions) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, decisions...)
	if m.maxDecisions > 0 && len(m.decisions) > m.maxDecisions {
		m.decisions = m.decisions[len(m.decisions)-m.maxDecisions:]
	}
}

// AppendLearning records a free-form learning note.
func (m *Memory) AppendLearning(note string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.learnings = append(m.learnings, note)
}

// Turns returns a snapshot of the conversation history.
func (m *Memory) Turns() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Insights returns a snapshot of accumulated insights.
func (m *Memory) Insights() []insight.Insight {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]insight.Insight, len(m.insights))
	copy(out, m.insights)
	return out
}

// Decisions returns a snapshot of recorded decisions.
func (m *Memory) Decisions() []Decision {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Decision, len(m.decisions))
	copy(out, m.decisions)
	return out
}

// DecisionSummaries renders decisions as short strings for prompt context.
func (m *Memory) DecisionSummaries() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.decisions))
	for _, d := range m.decisions {
		out = append(out, d.Decision)
	}
	return out
}
