package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/testutil"
)

func trackChanged(id string) domain.Event {
	return domain.NewTrackChangedEvent(0, domain.NoIndex, &domain.Track{ID: id})
}

// TestNewSyncEventBus tests event bus creation.
func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus()

	if bus == nil {
		t.Fatal("NewSyncEventBus returned nil")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", bus.SubscriberCount())
	}
	if bus.closed {
		t.Error("New event bus should not be closed")
	}
}

// TestPublishSubscribe tests basic publish/subscribe functionality.
func TestPublishSubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var received domain.Event
	var callCount int

	subID := bus.Subscribe(domain.EventEngineTrackChanged, func(event domain.Event) {
		received = event
		callCount++
	})
	if subID == "" {
		t.Fatal("Subscribe returned empty subscription ID")
	}

	bus.Publish(trackChanged("abc"))

	if callCount != 1 {
		t.Errorf("Expected handler to be called once, got %d", callCount)
	}
	e, ok := received.(domain.TrackChangedEvent)
	if !ok {
		t.Fatalf("Expected TrackChangedEvent, got %T", received)
	}
	if e.Track.ID != "abc" {
		t.Errorf("Expected track abc, got %s", e.Track.ID)
	}
}

// TestDeliveryOrder tests that handlers run in registration order, typed before wildcard.
func TestDeliveryOrder(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var order []string
	bus.SubscribeAll(func(domain.Event) { order = append(order, "all") })
	bus.Subscribe(domain.EventEngineStateChanged, func(domain.Event) { order = append(order, "first") })
	bus.Subscribe(domain.EventEngineStateChanged, func(domain.Event) { order = append(order, "second") })

	bus.Publish(domain.NewPlaybackStateChangedEvent(domain.EngineStatePlaying, 0))

	want := []string{"first", "second", "all"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, order)
			break
		}
	}
}

// TestUnsubscribe tests that unsubscribed handlers stop receiving events.
func TestUnsubscribe(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var count int
	id := bus.Subscribe(domain.EventEngineTrackChanged, func(domain.Event) { count++ })
	bus.Publish(trackChanged("a"))
	bus.Unsubscribe(id)
	bus.Publish(trackChanged("b"))

	if count != 1 {
		t.Errorf("Expected 1 call, got %d", count)
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", bus.SubscriberCount())
	}

	// Unknown IDs are ignored
	bus.Unsubscribe("sub-999")
}

// TestUnsubscribeFromHandler tests that a handler can unsubscribe itself while being called.
func TestUnsubscribeFromHandler(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var count int
	var id domain.SubscriptionID
	id = bus.Subscribe(domain.EventEngineTrackChanged, func(domain.Event) {
		count++
		bus.Unsubscribe(id)
	})

	bus.Publish(trackChanged("a"))
	bus.Publish(trackChanged("b"))

	if count != 1 {
		t.Errorf("Expected 1 call, got %d", count)
	}
}

// TestHasSubscribers tests typed and wildcard subscriber detection.
func TestHasSubscribers(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	if bus.HasSubscribers(domain.EventStateChanged) {
		t.Error("Expected no subscribers")
	}

	id := bus.Subscribe(domain.EventStateChanged, func(domain.Event) {})
	if !bus.HasSubscribers(domain.EventStateChanged) {
		t.Error("Expected subscribers for state.changed")
	}
	if bus.HasSubscribers(domain.EventPlaylistDeleted) {
		t.Error("Expected no subscribers for playlist.deleted")
	}
	bus.Unsubscribe(id)

	bus.SubscribeAll(func(domain.Event) {})
	if !bus.HasSubscribers(domain.EventPlaylistDeleted) {
		t.Error("Wildcard subscriber should match every type")
	}
}

// TestHandlerPanic tests that a panicking handler does not stop delivery.
func TestHandlerPanic(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var called bool
	bus.Subscribe(domain.EventEngineTrackChanged, func(domain.Event) { panic("boom") })
	bus.Subscribe(domain.EventEngineTrackChanged, func(domain.Event) { called = true })

	bus.Publish(trackChanged("a"))

	if !called {
		t.Error("Second handler should run after a panic")
	}
	delivered, panicked := bus.Stats()
	if delivered != 1 || panicked != 1 {
		t.Errorf("Expected 1 delivered and 1 panicked, got %d and %d", delivered, panicked)
	}
}

// TestClose tests closing semantics.
func TestClose(t *testing.T) {
	bus := NewSyncEventBus()

	var count int
	bus.Subscribe(domain.EventEngineTrackChanged, func(domain.Event) { count++ })

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := bus.Close(); err == nil {
		t.Error("Second Close should return an error")
	}

	bus.Publish(trackChanged("a"))
	if count != 0 {
		t.Error("Closed bus should not deliver events")
	}

	defer func() {
		if recover() == nil {
			t.Error("Subscribe on closed bus should panic")
		}
	}()
	bus.Subscribe(domain.EventEngineTrackChanged, func(domain.Event) {})
}

// TestNilEventAndHandler tests nil inputs.
func TestNilEventAndHandler(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	bus.Publish(nil)

	defer func() {
		if recover() == nil {
			t.Error("nil handler should panic")
		}
	}()
	bus.Subscribe(domain.EventStateChanged, nil)
}

// TestConcurrentPublishAndSubscribe tests thread safety under the race detector.
func TestConcurrentPublishAndSubscribe(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	bus := NewSyncEventBus()
	defer bus.Close()

	var total atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := bus.Subscribe(domain.EventEngineTrackChanged, func(domain.Event) { total.Add(1) })
			bus.Unsubscribe(id)
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(trackChanged("x"))
			}
		}()
	}
	wg.Wait()

	if bus.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", bus.SubscriberCount())
	}
}
