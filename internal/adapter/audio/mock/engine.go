// Package mock provides an in-memory implementation of the Engine interface.
// It keeps a queue, an active index and a playback state machine the way a
// device media engine does, without producing any audio.
package mock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// Engine operation names, used for failure injection and the call log.
const (
	OpReset    = "reset"
	OpAdd      = "add"
	OpRemove   = "remove"
	OpReplace  = "replace"
	OpSkip     = "skip"
	OpPlay     = "play"
	OpPause    = "pause"
	OpSeek     = "seek"
	OpQueue    = "queue"
	OpIndex    = "index"
	OpState    = "state"
	OpPosition = "position"
)

// ErrInjected is wrapped by every failure configured with SetFailure.
var ErrInjected = errors.New("injected engine failure")

// DefaultTrackDuration is the simulated length of every track.
const DefaultTrackDuration = 3 * time.Minute

// Call is one recorded engine command.
type Call struct {
	Op    string
	Index int
}

// Engine is an in-memory implementation of ports.Engine.
// Events are published on the bus after the engine lock is released.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger
	bus    ports.EventBus

	// Queue state
	queue    []domain.Track
	active   int
	state    domain.EngineState
	position time.Duration
	closed   bool
	mu       sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failures map[string]bool
	calls    []Call
}

// NewEngine creates a new in-memory engine publishing on bus.
// A nil bus disables events.
func NewEngine(bus ports.EventBus) *Engine {
	return &Engine{
		bus:      bus,
		queue:    []domain.Track{},
		active:   domain.NoIndex,
		state:    domain.EngineStateNone,
		failures: make(map[string]bool),
	}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailure makes op fail until cleared (for testing).
func (m *Engine) SetFailure(op string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = fail
}

// check must be called with the lock held.
func (m *Engine) check(op string) error {
	if m.closed {
		return domain.ErrEngineClosed
	}
	if m.failures[op] {
		return fmt.Errorf("%s: %w", op, ErrInjected)
	}
	return nil
}

func (m *Engine) record(op string, index int) {
	m.calls = append(m.calls, Call{Op: op, Index: index})
}

// Reset stops playback and clears the queue.
func (m *Engine) Reset(_ context.Context) error {
	m.mu.Lock()
	if err := m.check(OpReset); err != nil {
		m.mu.Unlock()
		return err
	}
	m.record(OpReset, domain.NoIndex)

	var events []domain.Event
	events = m.moveTo(domain.NoIndex, events)
	m.queue = []domain.Track{}
	m.position = 0
	events = m.setState(domain.EngineStateNone, events)
	m.mu.Unlock()

	m.publish(events)
	return nil
}

// Add appends tracks. The first track added to an empty queue becomes active.
func (m *Engine) Add(_ context.Context, tracks []domain.Track) error {
	m.mu.Lock()
	if err := m.check(OpAdd); err != nil {
		m.mu.Unlock()
		return err
	}
	m.record(OpAdd, len(tracks))

	var events []domain.Event
	m.queue = append(m.queue, tracks...)
	if m.active == domain.NoIndex && len(m.queue) > 0 {
		events = m.moveTo(0, events)
		events = m.setState(domain.EngineStateReady, events)
	}
	m.mu.Unlock()

	m.publish(events)
	return nil
}

// Remove deletes the track at index.
// Removing the active track makes the following one active, or the new last one
// when the active track was last. Removing before it shifts the active index left.
func (m *Engine) Remove(_ context.Context, index int) error {
	m.mu.Lock()
	if err := m.check(OpRemove); err != nil {
		m.mu.Unlock()
		return err
	}
	if index < 0 || index >= len(m.queue) {
		m.mu.Unlock()
		return fmt.Errorf("remove %d: %w", index, domain.ErrInvalidIndex)
	}
	m.record(OpRemove, index)

	var events []domain.Event
	m.queue = append(m.queue[:index:index], m.queue[index+1:]...)
	switch {
	case len(m.queue) == 0:
		m.active = domain.NoIndex
		m.position = 0
		events = append(events, domain.NewTrackChangedEvent(domain.NoIndex, index, nil))
		events = m.setState(domain.EngineStateNone, events)
	case index < m.active:
		// Same track, new slot
		m.active--
	case index == m.active:
		m.active = min(index, len(m.queue)-1)
		m.position = 0
		events = append(events, domain.NewTrackChangedEvent(m.active, index, m.activeTrack()))
	}
	m.mu.Unlock()

	m.publish(events)
	return nil
}

// Replace swaps the track stored at index.
func (m *Engine) Replace(_ context.Context, index int, track domain.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(OpReplace); err != nil {
		return err
	}
	if index < 0 || index >= len(m.queue) {
		return fmt.Errorf("replace %d: %w", index, domain.ErrInvalidIndex)
	}
	m.record(OpReplace, index)
	m.queue[index] = track
	return nil
}

// Skip moves the playback head to index. Playback state is kept.
func (m *Engine) Skip(_ context.Context, index int) error {
	m.mu.Lock()
	if err := m.check(OpSkip); err != nil {
		m.mu.Unlock()
		return err
	}
	if index < 0 || index >= len(m.queue) {
		m.mu.Unlock()
		return fmt.Errorf("skip %d: %w", index, domain.ErrInvalidIndex)
	}
	m.record(OpSkip, index)

	var events []domain.Event
	events = m.moveTo(index, events)
	m.position = 0
	if m.state == domain.EngineStateEnded {
		events = m.setState(domain.EngineStateReady, events)
	}
	m.mu.Unlock()

	m.publish(events)
	return nil
}

// Play starts or resumes the active track. With nothing active it is a no-op.
func (m *Engine) Play(_ context.Context) error {
	m.mu.Lock()
	if err := m.check(OpPlay); err != nil {
		m.mu.Unlock()
		return err
	}
	m.record(OpPlay, m.active)

	var events []domain.Event
	if m.active != domain.NoIndex {
		events = m.setState(domain.EngineStatePlaying, events)
	}
	m.mu.Unlock()

	m.publish(events)
	return nil
}

// Pause pauses playback, preserving the position.
func (m *Engine) Pause(_ context.Context) error {
	m.mu.Lock()
	if err := m.check(OpPause); err != nil {
		m.mu.Unlock()
		return err
	}
	m.record(OpPause, m.active)

	var events []domain.Event
	if m.state.IsActive() {
		events = m.setState(domain.EngineStatePaused, events)
	}
	m.mu.Unlock()

	m.publish(events)
	return nil
}

// SeekTo moves the position within the active track.
func (m *Engine) SeekTo(_ context.Context, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(OpSeek); err != nil {
		return err
	}
	if position < 0 || position > DefaultTrackDuration {
		return domain.ErrInvalidPosition
	}
	m.record(OpSeek, m.active)
	m.position = position
	return nil
}

// Queue returns a copy of the live queue.
func (m *Engine) Queue(_ context.Context) ([]domain.Track, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(OpQueue); err != nil {
		return nil, err
	}
	out := make([]domain.Track, len(m.queue))
	copy(out, m.queue)
	return out, nil
}

// ActiveTrackIndex returns the active index.
func (m *Engine) ActiveTrackIndex(_ context.Context) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(OpIndex); err != nil {
		return domain.NoIndex, false, err
	}
	return m.active, m.active != domain.NoIndex, nil
}

// ActiveTrack returns the active track or nil.
func (m *Engine) ActiveTrack(_ context.Context) (*domain.Track, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(OpIndex); err != nil {
		return nil, err
	}
	return m.activeTrack(), nil
}

// PlaybackState returns the engine state.
func (m *Engine) PlaybackState(_ context.Context) (domain.EngineState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(OpState); err != nil {
		return domain.EngineStateError, err
	}
	return m.state, nil
}

// Position returns the position within the active track.
func (m *Engine) Position(_ context.Context) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(OpPosition); err != nil {
		return 0, err
	}
	return m.position, nil
}

// Shutdown releases the engine. Further calls return domain.ErrEngineClosed.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrEngineClosed
	}
	m.closed = true
	m.queue = nil
	m.active = domain.NoIndex
	m.state = domain.EngineStateNone
	return nil
}

// activeTrack must be called with the lock held.
func (m *Engine) activeTrack() *domain.Track {
	if m.active < 0 || m.active >= len(m.queue) {
		return nil
	}
	t := m.queue[m.active]
	return &t
}

// moveTo must be called with the lock held.
func (m *Engine) moveTo(index int, events []domain.Event) []domain.Event {
	if index == m.active {
		return events
	}
	prev := m.active
	m.active = index
	return append(events, domain.NewTrackChangedEvent(index, prev, m.activeTrack()))
}

// setState must be called with the lock held. The event carries the
// position at the time of the transition.
func (m *Engine) setState(state domain.EngineState, events []domain.Event) []domain.Event {
	if state == m.state {
		return events
	}
	m.state = state
	return append(events, domain.NewPlaybackStateChangedEvent(state, m.position))
}

func (m *Engine) publish(events []domain.Event) {
	if m.bus == nil {
		return
	}
	for _, e := range events {
		if m.logger != nil {
			m.logger.Debug("engine event", slog.String("event_type", string(e.Type())))
		}
		m.bus.Publish(e)
	}
}

// Calls returns the recorded commands (for testing).
func (m *Engine) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CountCalls returns how many times op was issued (for testing).
func (m *Engine) CountCalls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log (for testing).
func (m *Engine) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// SimulateProgress advances the position of a playing track (for testing).
func (m *Engine) SimulateProgress(delta time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.EngineStatePlaying {
		return fmt.Errorf("engine is not playing")
	}
	m.position += delta
	if m.position > DefaultTrackDuration {
		m.position = DefaultTrackDuration
	}
	return nil
}

// SimulateState forces a state transition and publishes it (for testing).
func (m *Engine) SimulateState(state domain.EngineState) {
	m.mu.Lock()
	events := m.setState(state, nil)
	m.mu.Unlock()
	m.publish(events)
}

// SimulateTrackEnd advances to the next track like a natural track end.
// On the last track the queue finishes and the engine reports ended.
func (m *Engine) SimulateTrackEnd() {
	m.mu.Lock()
	var events []domain.Event
	if m.active != domain.NoIndex && m.active+1 < len(m.queue) {
		events = m.moveTo(m.active+1, events)
		m.position = 0
	} else if m.active != domain.NoIndex {
		m.position = DefaultTrackDuration
		events = m.setState(domain.EngineStateEnded, events)
	}
	m.mu.Unlock()
	m.publish(events)
}

// Verify that Engine implements the Engine interface
var _ ports.Engine = (*Engine)(nil)
