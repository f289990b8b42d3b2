package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_DeliversToAllSubscribers(t *testing.T) {
	e := NewEmitter()
	ch1, cancel1 := e.Subscribe()
	ch2, cancel2 := e.Subscribe()
	defer cancel1()
	defer cancel2()

	e.Emit(WorkflowCreated, map[string]string{"id": "wf-1"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case event := <-ch:
			assert.Equal(t, WorkflowCreated, event.Type)
			assert.False(t, event.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestEmitter_UnsubscribeStopsDelivery(t *testing.T) {
	e := NewEmitter()
	ch, cancel := e.Subscribe()
	cancel()

	// Emitting after cancel must not panic, and channel is closed
	e.Emit(WorkflowStarted, nil)
	_, open := <-ch
	assert.False(t, open)
}

func TestEmitter_SlowSubscriberDoesNotBlock(t *testing.T) {
	e := NewEmitter()
	_, cancel := e.Subscribe() // never drained
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			e.Emit(WorkflowProgress, i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emitter blocked on a slow subscriber")
	}
}

func TestEmitter_DoubleCancelIsSafe(t *testing.T) {
	e := NewEmitter()
	_, cancel := e.Subscribe()
	cancel()
	require.NotPanics(t, cancel)
}
