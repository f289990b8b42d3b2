package events

import (
	"sync"
	"time"

	"cortex/pkg/logger"
)

// Workflow lifecycle event types.
const (
	WorkflowCreated   = "workflowCreated"
	WorkflowStarted   = "workflowStarted"
	WorkflowProgress  = "workflowProgress"
	WorkflowCompleted = "workflowCompleted"
	WorkflowFailed    = "workflowFailed"
	ActionStarted     = "actionStarted"
	ActionCompleted   = "actionCompleted"
	ActionFailed      = "actionFailed"
)

// Event carries a lifecycle notification with a snapshot payload taken at
// emission time.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// subscriberBuffer is the per-subscriber channel depth; events beyond it
// are dropped for that subscriber rather than blocking the emitter.
const subscriberBuffer = 64

// Emitter is an in-process fan-out of lifecycle events.
type Emitter struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
	log  *logger.Logger
}

// NewEmitter creates an event emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		subs: make(map[int]chan Event),
		log:  logger.Get().With("component", "event_emitter"),
	}
}

// Subscribe registers a listener. The returned cancel func removes it and
// closes its channel.
func (e *Emitter) Subscribe() (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.next
	e.next++
	ch := make(chan Event, subscriberBuffer)
	e.subs[id] = ch

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if existing, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Emit delivers an event to all subscribers without blocking; a subscriber
// with a full buffer misses the event.
func (e *Emitter) Emit(eventType string, payload interface{}) {
	event := Event{Type: eventType, Timestamp: time.Now(), Payload: payload}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for id, ch := range e.subs {
		select {
		case ch <- event:
		default:
			e.log.Warn("Dropping event for slow subscriber",
				"event_type", eventType,
				"subscriber", id)
		}
	}
}
