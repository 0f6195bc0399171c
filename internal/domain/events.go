// Package domain defines events for the event-driven architecture.
// Events decouple the media engine, the playback services and their observers.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Engine events
	EventEngineTrackChanged EventType = "engine.track_changed"
	EventEngineStateChanged EventType = "engine.state_changed"

	// Host application lifecycle
	EventAppStateChanged EventType = "app.state_changed"

	// Store events
	EventStateChanged EventType = "state.changed"

	// Playlist events
	EventPlaylistUpdated EventType = "playlist.updated"
	EventPlaylistDeleted EventType = "playlist.deleted"

	// Synchronizer events
	EventTrackSynced EventType = "track.synced"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackChangedEvent is published by the engine when its active index changes,
// whatever the cause (explicit skip, natural advance, removal).
type TrackChangedEvent struct {
	baseEvent
	Index         int    // New active index, NoIndex when nothing is active
	PreviousIndex int    // Index before the change
	Track         *Track // New active track, nil when nothing is active
}

// Type returns the event type.
func (e TrackChangedEvent) Type() EventType {
	return EventEngineTrackChanged
}

// NewTrackChangedEvent creates a new TrackChangedEvent.
func NewTrackChangedEvent(index, previous int, track *Track) TrackChangedEvent {
	return TrackChangedEvent{
		baseEvent:     newBaseEvent(),
		Index:         index,
		PreviousIndex: previous,
		Track:         track,
	}
}

// PlaybackStateChangedEvent is published by the engine on every state transition.
// Position is the playback position when the transition happened.
type PlaybackStateChangedEvent struct {
	baseEvent
	State    EngineState
	Position time.Duration
}

// Type returns the event type.
func (e PlaybackStateChangedEvent) Type() EventType {
	return EventEngineStateChanged
}

// NewPlaybackStateChangedEvent creates a new PlaybackStateChangedEvent.
func NewPlaybackStateChangedEvent(state EngineState, position time.Duration) PlaybackStateChangedEvent {
	return PlaybackStateChangedEvent{
		baseEvent: newBaseEvent(),
		State:     state,
		Position:  position,
	}
}

// AppStateChangedEvent is published when the host app moves between foreground and background.
type AppStateChangedEvent struct {
	baseEvent
	State AppState
}

// Type returns the event type.
func (e AppStateChangedEvent) Type() EventType {
	return EventAppStateChanged
}

// NewAppStateChangedEvent creates a new AppStateChangedEvent.
func NewAppStateChangedEvent(state AppState) AppStateChangedEvent {
	return AppStateChangedEvent{
		baseEvent: newBaseEvent(),
		State:     state,
	}
}

// StateChangedEvent is published after every committed store mutation.
type StateChangedEvent struct {
	baseEvent
	State *PlaybackState // Snapshot after the mutation
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType {
	return EventStateChanged
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(state *PlaybackState) StateChangedEvent {
	return StateChangedEvent{
		baseEvent: newBaseEvent(),
		State:     state,
	}
}

// PlaylistUpdatedEvent is published when a stored playlist is created or modified.
type PlaylistUpdatedEvent struct {
	baseEvent
	Playlist StoredPlaylist
}

// Type returns the event type.
func (e PlaylistUpdatedEvent) Type() EventType {
	return EventPlaylistUpdated
}

// NewPlaylistUpdatedEvent creates a new PlaylistUpdatedEvent.
func NewPlaylistUpdatedEvent(playlist StoredPlaylist) PlaylistUpdatedEvent {
	return PlaylistUpdatedEvent{
		baseEvent: newBaseEvent(),
		Playlist:  playlist,
	}
}

// PlaylistDeletedEvent is published when a stored playlist is removed.
type PlaylistDeletedEvent struct {
	baseEvent
	PlaylistID string
}

// Type returns the event type.
func (e PlaylistDeletedEvent) Type() EventType {
	return EventPlaylistDeleted
}

// NewPlaylistDeletedEvent creates a new PlaylistDeletedEvent.
func NewPlaylistDeletedEvent(id string) PlaylistDeletedEvent {
	return PlaylistDeletedEvent{
		baseEvent:  newBaseEvent(),
		PlaylistID: id,
	}
}

// TrackSyncedEvent is published after a play request commits.
type TrackSyncedEvent struct {
	baseEvent
	Track  Track
	Source Source
	Index  int
}

// Type returns the event type.
func (e TrackSyncedEvent) Type() EventType {
	return EventTrackSynced
}

// NewTrackSyncedEvent creates a new TrackSyncedEvent.
func NewTrackSyncedEvent(track Track, source Source, index int) TrackSyncedEvent {
	return TrackSyncedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Source:    source,
		Index:     index,
	}
}
