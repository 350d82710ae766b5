// Package pubsub provides a generic publish/subscribe event system.
// Backend adapters and the config watcher publish from their own
// goroutines; the Bubble Tea update loop consumes through
// ContinuousListener, preserving the single-threaded ordering of the
// input core.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// CreatedEvent announces a new payload: an arriving message, a log line.
	CreatedEvent EventType = "created"
	// UpdatedEvent announces a changed payload: config file rewritten.
	UpdatedEvent EventType = "updated"
	// ConnectedEvent announces a backend session coming up.
	ConnectedEvent EventType = "connected"
	// ReconnectedEvent announces a backend session recovering.
	ReconnectedEvent EventType = "reconnected"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
