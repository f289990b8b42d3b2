package workflow

import (
	"sync"
	"time"
)

// State is the mutable record of one workflow held in the registry.
// All mutation happens through the orchestrator under the state's lock;
// readers take snapshots.
type State struct {
	mu sync.Mutex

	ID          string                 `json:"id"`
	Actions     []*Action              `json:"actions"`
	Status      Status                 `json:"status"`
	Progress    float64                `json:"progress"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Err         string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Results     map[string]interface{} `json:"results,omitempty"`
}

// Snapshot returns a deep copy safe to hand to event subscribers and API
// responses while execution continues.
func (s *State) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() *State {
	copyActions := make([]*Action, len(s.Actions))
	for i, a := range s.Actions {
		actionCopy := *a
		copyActions[i] = &actionCopy
	}

	results := make(map[string]interface{}, len(s.Results))
	for k, v := range s.Results {
		results[k] = v
	}

	metadata := make(map[string]interface{}, len(s.Metadata))
	for k, v := range s.Metadata {
		metadata[k] = v
	}

	return &State{
		ID:          s.ID,
		Actions:     copyActions,
		Status:      s.Status,
		Progress:    s.Progress,
		CreatedAt:   s.CreatedAt,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		Err:         s.Err,
		Metadata:    metadata,
		Results:     results,
	}
}

// update runs fn under the state's lock.
func (s *State) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// recomputeProgressLocked sets Progress to the percentage of actions in a
// counted-done status. Recomputed from scratch, never incremental.
func (s *State) recomputeProgressLocked() {
	if len(s.Actions) == 0 {
		s.Progress = 100
		return
	}
	done := 0
	for _, a := range s.Actions {
		if a.Status == ActionCompleted || a.Status == ActionSkipped {
			done++
		}
	}
	s.Progress = 100 * float64(done) / float64(len(s.Actions))
}

// allDoneLocked reports whether every action is completed or skipped.
func (s *State) allDoneLocked() bool {
	for _, a := range s.Actions {
		if a.Status != ActionCompleted && a.Status != ActionSkipped {
			return false
		}
	}
	return true
}
