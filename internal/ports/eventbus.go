// Package ports define the EventBus interface for event-driven communication.
package ports

import (
	"github.com/tejashwikalptaru/tunesync/internal/domain"
)

// EventBus carries engine notifications and state changes between components.
// The media engine publishes track and state changes here; the event bridge
// turns them into store mutations without the engine knowing about the store.
//
// Thread-safety: Implementations must be thread-safe. Publish may be called
// from the engine's callback goroutines.
//
// Example usage:
//
//	subID := bus.Subscribe(domain.EventEngineStateChanged, func(event domain.Event) {
//	    e := event.(domain.PlaybackStateChangedEvent)
//	    pending = append(pending, e)
//	})
//	defer bus.Unsubscribe(subID)
type EventBus interface {
	// Publish delivers event to the subscribers of its type and to the
	// SubscribeAll handlers. Handlers must return quickly; anything that
	// calls back into the engine belongs on another goroutine.
	Publish(event domain.Event)

	// Subscribe registers a handler for one event type. Registering the
	// same handler twice delivers every event twice.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a handler. Unknown ids are ignored.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler for every event type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether anyone listens to eventType.
	HasSubscribers(eventType domain.EventType) bool

	// Close drops all subscriptions. Publishing afterwards is a no-op.
	Close() error
}
