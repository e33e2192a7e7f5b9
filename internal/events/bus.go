// Package events provides the in-process event bus.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
// Unknown event types are dropped.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case BackendStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case BackendOutputEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type named by its parameter,
// e.g. func(BackendOutputEvent). It returns an unsubscribe function, a
// no-op for unsupported handler types.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(BackendStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BackendOutputEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
