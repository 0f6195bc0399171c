// Package eventbus provides implementations of the EventBus interface.
// This package contains the synchronous event bus implementation.
package eventbus

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// SyncEventBus is a synchronous implementation of the EventBus interface.
// Events are delivered to handlers synchronously in the order they were subscribed,
// on the publisher's goroutine.
//
// Thread-safety: This implementation is thread-safe. Multiple goroutines can
// publish events and subscribe/unsubscribe handlers concurrently. Handlers are
// called without the bus lock held, so a handler may publish or unsubscribe.
type SyncEventBus struct {
	logger *slog.Logger

	// subscriptions in registration order; wildcard subscriptions have an empty type
	subscriptions []subscription

	mu        sync.RWMutex
	idCounter uint64
	closed    bool

	delivered atomic.Uint64
	panicked  atomic.Uint64
}

type subscription struct {
	id        domain.SubscriptionID
	eventType domain.EventType
	handler   domain.EventHandler
}

func (s subscription) matches(t domain.EventType) bool {
	return s.eventType == "" || s.eventType == t
}

// NewSyncEventBus creates a new synchronous event bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{
		subscriptions: make([]subscription, 0),
	}
}

// SetLogger sets the logger for this event bus.
// This should be called after construction before using the event bus.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish publishes an event to all subscribers of that event type,
// then to wildcard subscribers.
//
// If the event bus is closed, this method does nothing.
// Panics in handlers are recovered and logged, but do not stop other handlers
// from being called.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	eventType := event.Type()
	typed := make([]subscription, 0, len(bus.subscriptions))
	wildcard := make([]subscription, 0)
	for _, sub := range bus.subscriptions {
		switch {
		case sub.eventType == eventType:
			typed = append(typed, sub)
		case sub.eventType == "":
			wildcard = append(wildcard, sub)
		}
	}
	logger := bus.logger
	bus.mu.RUnlock()

	if logger != nil && len(typed)+len(wildcard) > 0 {
		logger.Debug("event published",
			slog.String("event_type", string(eventType)),
			slog.Int("handlers", len(typed)+len(wildcard)))
	}

	for _, sub := range typed {
		bus.callHandler(logger, sub, event)
	}
	for _, sub := range wildcard {
		bus.callHandler(logger, sub, event)
	}
}

// callHandler calls an event handler and recovers from panics.
func (bus *SyncEventBus) callHandler(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			bus.panicked.Add(1)
			if logger != nil {
				logger.Error("event handler panicked",
					slog.Any("panic", r),
					slog.String("subscription", string(sub.id)),
					slog.String("event_type", string(event.Type())))
			}
		}
	}()

	sub.handler(event)
	bus.delivered.Add(1)
}

// Subscribe registers a handler for events of the specified type.
// Returns a unique subscription ID that can be used to unsubscribe.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if eventType == "" {
		panic("event type cannot be empty, use SubscribeAll")
	}
	return bus.add("sub", eventType, handler)
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("sub-all", "", handler)
}

func (bus *SyncEventBus) add(prefix string, eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		panic("cannot subscribe to closed event bus")
	}

	bus.idCounter++
	id := domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.idCounter))
	bus.subscriptions = append(bus.subscriptions, subscription{
		id:        id,
		eventType: eventType,
		handler:   handler,
	})
	return id
}

// Unsubscribe removes a previously registered event handler.
// If the subscription ID is invalid or already unsubscribed, this is a no-op.
// Registration order of the remaining handlers is preserved.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	for i, sub := range bus.subscriptions {
		if sub.id == id {
			bus.subscriptions = append(bus.subscriptions[:i:i], bus.subscriptions[i+1:]...)
			return
		}
	}
}

// HasSubscribers returns true if any subscription would receive an event of the given type.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, sub := range bus.subscriptions {
		if sub.matches(eventType) {
			return true
		}
	}
	return false
}

// Close shuts down the event bus and clears all subscriptions.
// Returns an error if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return fmt.Errorf("event bus already closed")
	}

	bus.closed = true
	bus.subscriptions = nil
	return nil
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subscriptions)
}

// Stats returns how many handler calls completed and how many panicked.
func (bus *SyncEventBus) Stats() (delivered, panicked uint64) {
	return bus.delivered.Load(), bus.panicked.Load()
}

// Verify that SyncEventBus implements the EventBus interface
var _ ports.EventBus = (*SyncEventBus)(nil)
