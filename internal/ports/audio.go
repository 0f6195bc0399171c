// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"context"
	"time"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
)

// Engine is the interface for the external media-playback engine.
// The engine is a process-wide singleton that owns its own queue, active index
// and playback state machine. It is consumed, not implemented, by the core.
//
// Implementations publish domain.TrackChangedEvent and domain.PlaybackStateChangedEvent
// on the event bus they were constructed with. Events must be published after any
// internal lock is released so handlers may call back into the engine. State
// events carry the position at the moment of the transition.
//
// Implementations must be thread-safe as they may be called from multiple goroutines.
type Engine interface {
	// Queue mutation methods

	// Reset stops playback and clears the queue.
	Reset(ctx context.Context) error

	// Add appends tracks to the end of the queue.
	// Adding to an empty queue makes index 0 active without starting playback.
	Add(ctx context.Context, tracks []domain.Track) error

	// Remove deletes the track at index.
	// Removing a slot before the active index shifts the active index left.
	Remove(ctx context.Context, index int) error

	// Replace swaps the track stored at index, keeping its position.
	Replace(ctx context.Context, index int, track domain.Track) error

	// Skip moves the playback head to index.
	Skip(ctx context.Context, index int) error

	// Playback control methods

	// Play starts or resumes playback of the active track.
	Play(ctx context.Context) error

	// Pause pauses playback, preserving the position.
	Pause(ctx context.Context) error

	// SeekTo moves the playback position within the active track.
	SeekTo(ctx context.Context, position time.Duration) error

	// State query methods

	// Queue returns a copy of the live queue.
	Queue(ctx context.Context) ([]domain.Track, error)

	// ActiveTrackIndex returns the active index; ok is false when nothing is active.
	ActiveTrackIndex(ctx context.Context) (index int, ok bool, err error)

	// ActiveTrack returns the active track, or nil when nothing is active.
	ActiveTrack(ctx context.Context) (*domain.Track, error)

	// PlaybackState returns the engine's own playback state.
	PlaybackState(ctx context.Context) (domain.EngineState, error)

	// Position returns the playback position within the active track.
	Position(ctx context.Context) (time.Duration, error)

	// Lifecycle

	// Shutdown releases engine resources.
	Shutdown() error
}
