package testsupport

import (
	"context"
	"sync"

	"pricingboard/internal/notifications"
)

// RecordedEvent is a notification captured by RecordingNotifier.
type RecordedEvent struct {
	Event   notifications.Event
	Payload notifications.Payload
}

// RecordingNotifier captures published events in memory.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []RecordedEvent
}

func (r *RecordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Event: event, Payload: payload})
	return nil
}

// Events returns a copy of the captured events.
func (r *RecordingNotifier) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of kind were captured.
func (r *RecordingNotifier) Count(kind notifications.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Event == kind {
			n++
		}
	}
	return n
}
