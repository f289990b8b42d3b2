package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"cortex/internal/adapters/config"
	"cortex/internal/events"
	"cortex/internal/metrics"
	"cortex/pkg/errors"
	"cortex/pkg/logger"
	"cortex/pkg/retry"
)

// Handler executes one action type. The workflow snapshot gives handlers
// read access to prior results.
type Handler func(ctx context.Context, action *Action, wf *State) (interface{}, error)

// Orchestrator maintains the in-memory workflow registry and drives each
// workflow's actions to completion or failure.
type Orchestrator struct {
	cfg     config.WorkflowConfig
	emitter *events.Emitter

	mu        sync.Mutex
	workflows map[string]*State
	order     []string
	handlers  map[ActionType]Handler
	rules     []AutomationRule

	log *logger.Logger
}

// New creates an orchestrator. The built-in auto-retry rule is registered
// first; callers may add more rules before creating workflows.
func New(cfg config.WorkflowConfig, emitter *events.Emitter) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		emitter:   emitter,
		workflows: make(map[string]*State),
		handlers:  make(map[ActionType]Handler),
		log:       logger.Get().With("component", "workflow_orchestrator"),
	}
	o.RegisterRule(autoRetryRule(o))
	return o
}

// RegisterHandler binds a handler to an action type.
func (o *Orchestrator) RegisterHandler(t ActionType, h Handler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.handlers[t] = h
}

// RegisterRule appends an automation rule; rules run in registration order
// on workflow failure.
func (o *Orchestrator) RegisterRule(rule AutomationRule) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rules = append(o.rules, rule)
}

// CreateWorkflow registers the actions as a new workflow and synchronously
// drives it to a terminal status. The returned snapshot reflects that
// terminal state; err is non-nil when the workflow failed.
func (o *Orchestrator) CreateWorkflow(ctx context.Context, actions []Action) (*State, error) {
	normalized := make([]*Action, len(actions))
	for i := range actions {
		a := actions[i]
		a.Status = ActionPending
		a.Result = nil
		a.Err = ""
		a.StartedAt = nil
		a.CompletedAt = nil
		if a.ID == "" {
			a.ID = fmt.Sprintf("action_%d", i)
		}
		normalized[i] = &a
	}

	wf := &State{
		ID:        uuid.NewString(),
		Actions:   normalized,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		Results:   make(map[string]interface{}),
	}

	o.register(wf)
	o.emitter.Emit(events.WorkflowCreated, wf.Snapshot())

	err := o.executeWorkflow(ctx, wf)
	return wf.Snapshot(), err
}

// register stores the workflow, evicting the oldest terminal workflow once
// the registry exceeds its bound.
func (o *Orchestrator) register(wf *State) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cfg.MaxRetained > 0 && len(o.workflows) >= o.cfg.MaxRetained {
		for i, id := range o.order {
			if existing, ok := o.workflows[id]; ok && existing.Snapshot().Status.terminal() {
				delete(o.workflows, id)
				o.order = append(o.order[:i], o.order[i+1:]...)
				o.log.Debug("Evicted terminal workflow from registry", "workflow_id", id)
				break
			}
		}
	}

	o.workflows[wf.ID] = wf
	o.order = append(o.order, wf.ID)
}

// Get returns a snapshot of a registered workflow.
func (o *Orchestrator) Get(id string) (*State, error) {
	o.mu.Lock()
	wf, ok := o.workflows[id]
	o.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrWorkflowNotFound, "workflow %s", id)
	}
	return wf.Snapshot(), nil
}

// List returns snapshots of all registered workflows in creation order.
func (o *Orchestrator) List() []*State {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*State, 0, len(o.order))
	for _, id := range o.order {
		if wf, ok := o.workflows[id]; ok {
			out = append(out, wf.Snapshot())
		}
	}
	return out
}

func (o *Orchestrator) executeWorkflow(ctx context.Context, wf *State) error {
	start := time.Now()

	sorted, err := sortByDependencies(wf.Actions)
	if err != nil {
		o.failWorkflow(wf, err)
		return err
	}

	now := time.Now()
	wf.update(func() {
		wf.Status = StatusInProgress
		wf.StartedAt = &now
	})
	o.emitter.Emit(events.WorkflowStarted, wf.Snapshot())

	for _, action := range sorted {
		if err := o.executeAction(ctx, wf, action); err != nil {
			o.failWorkflow(wf, err)
			o.runAutomationRules(wf)

			// Automation rules may have recovered every action
			recovered := false
			wf.update(func() {
				if wf.allDoneLocked() {
					wf.Status = StatusCompleted
					wf.Err = ""
					wf.recomputeProgressLocked()
					recovered = true
				}
			})
			if recovered {
				o.emitter.Emit(events.WorkflowCompleted, wf.Snapshot())
				metrics.WorkflowExecutions.WithLabelValues("completed").Inc()
				metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
				return nil
			}

			metrics.WorkflowExecutions.WithLabelValues("failed").Inc()
			metrics.WorkflowDuration.Observe(time.Since(start).Seconds())
			return err
		}
	}

	done := time.Now()
	wf.update(func() {
		wf.Status = StatusCompleted
		wf.CompletedAt = &done
		wf.recomputeProgressLocked()
	})
	o.emitter.Emit(events.WorkflowCompleted, wf.Snapshot())
	metrics.WorkflowExecutions.WithLabelValues("completed").Inc()
	metrics.WorkflowDuration.Observe(time.Since(start).Seconds())

	o.log.Info("Workflow completed",
		"workflow_id", wf.ID,
		"actions", len(wf.Actions),
		"duration", time.Since(start))
	return nil
}

func (o *Orchestrator) failWorkflow(wf *State, cause error) {
	now := time.Now()
	wf.update(func() {
		wf.Status = StatusFailed
		wf.Err = cause.Error()
		wf.CompletedAt = &now
	})
	o.emitter.Emit(events.WorkflowFailed, wf.Snapshot())
	o.log.Warn("Workflow failed", "workflow_id", wf.ID, "error", cause)
}

// executeAction runs one action through its handler. A missing handler is a
// configuration error that aborts the workflow.
func (o *Orchestrator) executeAction(ctx context.Context, wf *State, action *Action) error {
	o.mu.Lock()
	handler, ok := o.handlers[action.Type]
	o.mu.Unlock()
	if !ok {
		err := errors.Wrapf(errors.ErrConfiguration, "no handler registered for action type %q", action.Type)
		o.markActionFailed(wf, action, err)
		return err
	}

	now := time.Now()
	wf.update(func() {
		action.Status = ActionInProgress
		action.StartedAt = &now
	})
	o.emitter.Emit(events.ActionStarted, wf.Snapshot())

	timeout := action.Timeout
	if timeout <= 0 {
		timeout = o.cfg.ActionTimeout
	}
	actionCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		actionCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := handler(actionCtx, action, wf.Snapshot())
	metrics.RecordActionExecution(string(action.Type), err)
	if err != nil {
		o.markActionFailed(wf, action, err)
		return errors.Wrapf(err, "action %s (%s) failed", action.ID, action.Type)
	}

	done := time.Now()
	wf.update(func() {
		action.Status = ActionCompleted
		action.Result = result
		action.CompletedAt = &done
		wf.Results[action.ID] = result
		wf.recomputeProgressLocked()
	})
	o.emitter.Emit(events.ActionCompleted, wf.Snapshot())
	o.emitter.Emit(events.WorkflowProgress, wf.Snapshot())
	return nil
}

func (o *Orchestrator) markActionFailed(wf *State, action *Action, cause error) {
	now := time.Now()
	wf.update(func() {
		action.Status = ActionFailed
		action.Err = cause.Error()
		action.CompletedAt = &now
	})
	o.emitter.Emit(events.ActionFailed, wf.Snapshot())
}

// runAutomationRules applies enabled rules whose condition matches, in
// registration order. Rule errors are logged, never propagated.
func (o *Orchestrator) runAutomationRules(wf *State) {
	o.mu.Lock()
	rules := make([]AutomationRule, len(o.rules))
	copy(rules, o.rules)
	o.mu.Unlock()

	for _, rule := range rules {
		if !rule.Enabled || rule.Condition == nil || !rule.Condition(wf.Snapshot()) {
			continue
		}
		o.log.Info("Applying automation rule", "workflow_id", wf.ID, "rule", rule.Name)
		if err := rule.Action(wf); err != nil {
			o.log.Warn("Automation rule failed", "rule", rule.Name, "error", err)
		}
	}
}

// autoRetryRule re-runs failed actions whose retry policy allows attempts,
// with backoff per the policy.
func autoRetryRule(o *Orchestrator) AutomationRule {
	return AutomationRule{
		ID:      "auto-retry-failed",
		Name:    "Auto-retry failed actions",
		Enabled: true,
		Condition: func(wf *State) bool {
			for _, a := range wf.Actions {
				if a.Status == ActionFailed && a.RetryPolicy.MaxAttempts > 0 {
					return true
				}
			}
			return false
		},
		Action: func(wf *State) error {
			return o.retryFailedActions(wf)
		},
	}
}

func (o *Orchestrator) retryFailedActions(wf *State) error {
	var failed []*Action
	wf.update(func() {
		for _, a := range wf.Actions {
			if a.Status == ActionFailed && a.RetryPolicy.MaxAttempts > 0 {
				failed = append(failed, a)
			}
		}
	})

	for _, action := range failed {
		o.mu.Lock()
		handler, ok := o.handlers[action.Type]
		o.mu.Unlock()
		if !ok {
			continue
		}

		strategy := action.RetryPolicy.Strategy
		if strategy == "" {
			strategy = retry.StrategyExponential
		}
		backoff := action.RetryPolicy.Backoff
		if backoff <= 0 {
			backoff = o.cfg.RetryBackoff
		}
		policy := retry.Policy{
			MaxAttempts:  action.RetryPolicy.MaxAttempts,
			InitialDelay: backoff,
			Strategy:     strategy,
			Multiplier:   2.0,
		}

		var result interface{}
		err := retry.Do(context.Background(), policy, func(ctx context.Context) error {
			var handlerErr error
			result, handlerErr = handler(ctx, action, wf.Snapshot())
			return handlerErr
		})
		metrics.RecordActionExecution(string(action.Type), err)
		if err != nil {
			o.log.Warn("Action retry exhausted", "action_id", action.ID, "error", err)
			continue
		}

		done := time.Now()
		wf.update(func() {
			action.Status = ActionCompleted
			action.Result = result
			action.Err = ""
			action.CompletedAt = &done
			wf.Results[action.ID] = result
			wf.recomputeProgressLocked()
		})
		o.emitter.Emit(events.ActionCompleted, wf.Snapshot())
		o.log.Info("Action recovered by retry", "action_id", action.ID)
	}
	return nil
}
