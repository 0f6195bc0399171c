package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// DefaultDedupeWindow is how long a repeated track-changed event for the
// same track id is ignored.
const DefaultDedupeWindow = time.Second

// ErrBridgeStarted is returned by Start on a running bridge.
var ErrBridgeStarted = errors.New("event bridge already started")

// EventBridge folds engine notifications back into the QueueStore.
//
// Handlers on the bus only enqueue; a single worker goroutine applies the
// events in order. The engine may therefore publish while the Synchronizer
// holds its lock without deadlocking the publisher.
type EventBridge struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.Engine
	store  *QueueStore
	player *Synchronizer
	bus    ports.EventBus

	// Dedupe guard, touched by the worker only
	window time.Duration
	now    func() time.Time
	lastID string
	lastAt time.Time

	// Pending events
	pendingMu sync.Mutex
	pending   []domain.Event
	signal    chan struct{}

	// Lifecycle
	lifeMu sync.Mutex
	subs   []domain.SubscriptionID
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

// NewEventBridge creates a bridge. A non-positive window selects DefaultDedupeWindow.
func NewEventBridge(
	logger *slog.Logger,
	engine ports.Engine,
	store *QueueStore,
	player *Synchronizer,
	bus ports.EventBus,
	window time.Duration,
) *EventBridge {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	return &EventBridge{
		logger: logger.With(slog.String("service", "bridge")),
		engine: engine,
		store:  store,
		player: player,
		bus:    bus,
		window: window,
		now:    time.Now,
		signal: make(chan struct{}, 1),
	}
}

// Start subscribes to engine and app lifecycle events and starts the worker.
func (b *EventBridge) Start(ctx context.Context) error {
	b.lifeMu.Lock()
	defer b.lifeMu.Unlock()

	if b.cancel != nil {
		return ErrBridgeStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.subs = []domain.SubscriptionID{
		b.bus.Subscribe(domain.EventEngineTrackChanged, b.enqueue),
		b.bus.Subscribe(domain.EventEngineStateChanged, b.enqueue),
		b.bus.Subscribe(domain.EventAppStateChanged, b.enqueue),
	}
	b.wg.Go(func() { b.run(ctx) })

	b.logger.Debug("event bridge started")
	return nil
}

// Stop unsubscribes and waits for the worker to exit.
// Events still pending are dropped.
func (b *EventBridge) Stop() {
	b.lifeMu.Lock()
	defer b.lifeMu.Unlock()

	if b.cancel == nil {
		return
	}
	for _, id := range b.subs {
		b.bus.Unsubscribe(id)
	}
	b.subs = nil
	b.cancel()
	b.wg.Wait()
	b.cancel = nil

	b.logger.Debug("event bridge stopped")
}

// enqueue never blocks the publisher.
func (b *EventBridge) enqueue(e domain.Event) {
	b.pendingMu.Lock()
	b.pending = append(b.pending, e)
	b.pendingMu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

func (b *EventBridge) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.signal:
		}

		b.pendingMu.Lock()
		batch := b.pending
		b.pending = nil
		b.pendingMu.Unlock()

		for _, e := range batch {
			if ctx.Err() != nil {
				return
			}
			b.handle(ctx, e)
		}
	}
}

func (b *EventBridge) handle(ctx context.Context, e domain.Event) {
	var err error
	switch ev := e.(type) {
	case domain.TrackChangedEvent:
		err = b.onTrackChanged(ctx, ev)
	case domain.PlaybackStateChangedEvent:
		err = b.onStateChanged(ctx, ev)
	case domain.AppStateChangedEvent:
		err = b.onAppStateChanged(ctx, ev)
	}
	if err != nil {
		b.logger.Warn("failed to apply engine event",
			slog.String("event", string(e.Type())),
			slog.Any("error", err))
	}
}

func (b *EventBridge) onTrackChanged(ctx context.Context, e domain.TrackChangedEvent) error {
	if e.Track == nil {
		return nil
	}

	now := b.now()
	if e.Track.ID == b.lastID && now.Sub(b.lastAt) < b.window {
		b.logger.Debug("duplicate track change ignored", slog.String("track_id", e.Track.ID))
		return nil
	}

	err := b.player.Exclusive(ctx, func(ctx context.Context) error {
		// The event may be stale by now; trust the engine's current view
		active, err := b.engine.ActiveTrack(ctx)
		if err != nil {
			return err
		}
		if active == nil {
			return nil
		}
		index, ok, err := b.engine.ActiveTrackIndex(ctx)
		if err != nil {
			return err
		}

		state := b.store.State()
		q := state.ActiveQueue()
		pos := indexOfTrack(q.Tracks, active.ID)
		if ok && index < q.Len() && q.Tracks[index].ID == active.ID {
			pos = index
		}
		if pos < 0 {
			b.logger.Debug("engine track not in active queue", slog.String("track_id", active.ID))
			return nil
		}
		if q.Index == pos && state.CurrentMusic != nil && state.CurrentMusic.ID == active.ID {
			return nil
		}

		track := *active
		return b.store.Update(func(st *domain.PlaybackState) error {
			st.CurrentMusic = &track
			st.ActiveQueue().Index = pos
			st.Position = 0
			return nil
		})
	})
	if err != nil {
		return err
	}
	// Only an applied change suppresses repeats
	b.lastID, b.lastAt = e.Track.ID, now
	return nil
}

func (b *EventBridge) onStateChanged(ctx context.Context, e domain.PlaybackStateChangedEvent) error {
	switch e.State {
	case domain.EngineStatePlaying, domain.EngineStateBuffering:
		if b.store.State().IsPlaying {
			return nil
		}
		return b.store.SetPlaying(true)

	case domain.EngineStatePaused, domain.EngineStateStopped:
		return b.store.Update(func(st *domain.PlaybackState) error {
			st.IsPlaying = false
			st.Position = e.Position
			return nil
		})

	case domain.EngineStateError:
		return b.store.SetPlaying(false)

	case domain.EngineStateEnded:
		b.logger.Debug("queue ended, restarting from the top")
		return b.player.RestartFromTop(ctx)
	}
	return nil
}

// onAppStateChanged saves the resume point when the app is backgrounded.
// Audio may keep playing in the background, so the playing flag stays.
func (b *EventBridge) onAppStateChanged(ctx context.Context, e domain.AppStateChangedEvent) error {
	if e.State != domain.AppStateBackground {
		return nil
	}
	if b.store.State().CurrentMusic == nil {
		return nil
	}
	position, err := b.engine.Position(ctx)
	if err != nil {
		return err
	}
	return b.store.SetPosition(position)
}
