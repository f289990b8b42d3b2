package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/adapters/config"
	"cortex/internal/events"
	"cortex/internal/insight"
	"cortex/pkg/errors"
)

func testConfig() config.WorkflowConfig {
	return config.WorkflowConfig{
		MaxRetained:      8,
		ActionTimeout:    time.Second,
		RetryMaxAttempts: 3,
		RetryBackoff:     time.Millisecond,
	}
}

// recorder tracks the order in which actions ran.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, id)
}

func (r *recorder) ran() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func TestCreateWorkflow_DependencyOrder(t *testing.T) {
	o := New(testConfig(), events.NewEmitter())
	rec := &recorder{}
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		rec.record(a.ID)
		return "ok", nil
	})

	// b declared first but depends on a
	wf, err := o.CreateWorkflow(context.Background(), []Action{
		{ID: "b", Type: ActionAutomation, Dependencies: []string{"a"}},
		{ID: "a", Type: ActionAutomation},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, rec.ran())
	assert.Equal(t, StatusCompleted, wf.Status)
	assert.Equal(t, float64(100), wf.Progress)
	for _, a := range wf.Actions {
		assert.Equal(t, ActionCompleted, a.Status)
		require.NotNil(t, a.CompletedAt)
	}
}

func TestCreateWorkflow_FailureLeavesDependentPending(t *testing.T) {
	o := New(testConfig(), events.NewEmitter())
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		if a.ID == "a" {
			return nil, errors.Wrap(errors.ErrUnavailable, "downstream outage")
		}
		return "ok", nil
	})

	wf, err := o.CreateWorkflow(context.Background(), []Action{
		{ID: "a", Type: ActionAutomation},
		{ID: "b", Type: ActionAutomation, Dependencies: []string{"a"}},
	})
	require.Error(t, err)

	assert.Equal(t, StatusFailed, wf.Status)
	assert.NotEmpty(t, wf.Err)

	byID := map[string]*Action{}
	for _, a := range wf.Actions {
		byID[a.ID] = a
	}
	assert.Equal(t, ActionFailed, byID["a"].Status)
	assert.Equal(t, ActionPending, byID["b"].Status)
}

func TestCreateWorkflow_CycleFailsBeforeAnyAction(t *testing.T) {
	o := New(testConfig(), events.NewEmitter())
	rec := &recorder{}
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		rec.record(a.ID)
		return "ok", nil
	})

	wf, err := o.CreateWorkflow(context.Background(), []Action{
		{ID: "a", Type: ActionAutomation, Dependencies: []string{"b"}},
		{ID: "b", Type: ActionAutomation, Dependencies: []string{"a"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCycleDetected))
	assert.Equal(t, StatusFailed, wf.Status)
	assert.Empty(t, rec.ran())
}

func TestCreateWorkflow_MissingHandlerIsConfigurationError(t *testing.T) {
	o := New(testConfig(), events.NewEmitter())

	wf, err := o.CreateWorkflow(context.Background(), []Action{
		{ID: "a", Type: ActionIntegration},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	assert.Equal(t, StatusFailed, wf.Status)
	assert.Equal(t, ActionFailed, wf.Actions[0].Status)
}

func TestCreateWorkflow_ProgressRecomputed(t *testing.T) {
	o := New(testConfig(), events.NewEmitter())
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		if a.ID == "fail" {
			return nil, errors.Wrap(errors.ErrInternal, "boom")
		}
		return "ok", nil
	})

	wf, err := o.CreateWorkflow(context.Background(), []Action{
		{ID: "ok1", Type: ActionAutomation},
		{ID: "ok2", Type: ActionAutomation, Dependencies: []string{"ok1"}},
		{ID: "fail", Type: ActionAutomation, Dependencies: []string{"ok2"}},
		{ID: "never", Type: ActionAutomation, Dependencies: []string{"fail"}},
	})
	require.Error(t, err)
	assert.Equal(t, float64(50), wf.Progress)
}

func TestCreateWorkflow_AutoRetryRecoversWorkflow(t *testing.T) {
	o := New(testConfig(), events.NewEmitter())

	var mu sync.Mutex
	attempts := 0
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return nil, errors.Wrap(errors.ErrUnavailable, "transient")
		}
		return "recovered", nil
	})

	wf, err := o.CreateWorkflow(context.Background(), []Action{
		{ID: "flaky", Type: ActionAutomation, RetryPolicy: RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, wf.Status)
	assert.Empty(t, wf.Err)
	assert.Equal(t, float64(100), wf.Progress)
	assert.Equal(t, ActionCompleted, wf.Actions[0].Status)
	assert.Equal(t, "recovered", wf.Results["flaky"])
}

func TestCreateWorkflow_NoRetryPolicyStaysFailed(t *testing.T) {
	o := New(testConfig(), events.NewEmitter())
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		return nil, errors.Wrap(errors.ErrUnavailable, "hard failure")
	})

	wf, err := o.CreateWorkflow(context.Background(), []Action{
		{ID: "a", Type: ActionAutomation},
	})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, wf.Status)
}

func TestCreateWorkflow_CustomRuleRunsOnFailure(t *testing.T) {
	o := New(testConfig(), events.NewEmitter())
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		return nil, errors.Wrap(errors.ErrInternal, "boom")
	})

	fired := false
	o.RegisterRule(AutomationRule{
		ID:        "escalate",
		Name:      "Escalate failures",
		Enabled:   true,
		Condition: func(wf *State) bool { return wf.Status == StatusFailed },
		Action: func(wf *State) error {
			fired = true
			return nil
		},
	})

	_, err := o.CreateWorkflow(context.Background(), []Action{
		{ID: "a", Type: ActionAutomation},
	})
	require.Error(t, err)
	assert.True(t, fired)
}

func TestGetAndList(t *testing.T) {
	o := New(testConfig(), events.NewEmitter())
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		return "ok", nil
	})

	first, err := o.CreateWorkflow(context.Background(), []Action{{ID: "a", Type: ActionAutomation}})
	require.NoError(t, err)
	second, err := o.CreateWorkflow(context.Background(), []Action{{ID: "a", Type: ActionAutomation}})
	require.NoError(t, err)

	got, err := o.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = o.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrWorkflowNotFound))

	list := o.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestRegistryEvictsOldestTerminal(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetained = 2
	o := New(cfg, events.NewEmitter())
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		return "ok", nil
	})

	first, err := o.CreateWorkflow(context.Background(), []Action{{ID: "a", Type: ActionAutomation}})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := o.CreateWorkflow(context.Background(), []Action{{ID: "a", Type: ActionAutomation}})
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, len(o.List()), cfg.MaxRetained+1)
	_, err = o.Get(first.ID)
	assert.Error(t, err)
}

func TestCreateWorkflow_EmitsLifecycleEvents(t *testing.T) {
	emitter := events.NewEmitter()
	ch, cancel := emitter.Subscribe()
	defer cancel()

	o := New(testConfig(), emitter)
	o.RegisterHandler(ActionAutomation, func(ctx context.Context, a *Action, wf *State) (interface{}, error) {
		return "ok", nil
	})

	_, err := o.CreateWorkflow(context.Background(), []Action{{ID: "a", Type: ActionAutomation}})
	require.NoError(t, err)

	var types []string
	timeout := time.After(time.Second)
	for len(types) < 5 {
		select {
		case ev := <-ch:
			types = append(types, ev.Type)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %v", types)
		}
	}

	assert.Equal(t, []string{
		events.WorkflowCreated,
		events.WorkflowStarted,
		events.ActionStarted,
		events.ActionCompleted,
		events.WorkflowProgress,
	}, types[:5])
}

func TestFromAgentActions_Conversion(t *testing.T) {
	converted := FromAgentActions([]insight.Action{
		{
			ID:                  "a1",
			Type:                insight.ActionTypePrediction,
			Description:         "forecast demand",
			Priority:            insight.PriorityHigh,
			Status:              insight.ActionStatusPending,
			AutomationPotential: 0.7,
			MLConfidence:        0.9,
		},
		{ID: "a2", Type: insight.ActionTypeRecommendation, Priority: insight.PriorityLow, Status: insight.ActionStatusCancelled},
		{ID: "a3", Type: insight.ActionTypeAutomation, Status: insight.ActionStatusCompleted},
	})
	require.Len(t, converted, 3)

	assert.Equal(t, ActionAnalysis, converted[0].Type)
	assert.Equal(t, PriorityHigh, converted[0].Priority)
	assert.Equal(t, ActionPending, converted[0].Status)
	assert.Equal(t, 0.7, converted[0].Config["automation_potential"])
	assert.Equal(t, 0.9, converted[0].Config["ml_confidence"])

	assert.Equal(t, ActionDecision, converted[1].Type)
	assert.Equal(t, PriorityLow, converted[1].Priority)
	assert.Equal(t, ActionSkipped, converted[1].Status)

	assert.Equal(t, ActionAutomation, converted[2].Type)
	assert.Equal(t, PriorityMedium, converted[2].Priority)
	assert.Equal(t, ActionCompleted, converted[2].Status)
}
