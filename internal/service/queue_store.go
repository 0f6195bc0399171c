package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// QueueStore is the single source of truth for the playback state record.
// Every mutation validates the queue index bounds, writes through to the
// repository and publishes a StateChangedEvent. A mutation whose write fails
// is discarded, so memory and storage never disagree.
//
// The store never calls the engine. StateChangedEvent handlers run on the
// mutating goroutine and must not call back into the Synchronizer.
//
// Thread-safety: All operations protected by sync.RWMutex.
type QueueStore struct {
	// Dependencies (injected)
	logger *slog.Logger
	repo   ports.StateRepository
	bus    ports.EventBus

	// State
	state *domain.PlaybackState

	// Concurrency control
	mu sync.RWMutex
}

// NewQueueStore creates a store holding first-launch defaults.
// Call Load to read the persisted record.
func NewQueueStore(logger *slog.Logger, repo ports.StateRepository, bus ports.EventBus) *QueueStore {
	return &QueueStore{
		logger: logger.With(slog.String("service", "store")),
		repo:   repo,
		bus:    bus,
		state:  domain.NewPlaybackState(),
	}
}

// Load replaces the in-memory record with the persisted one.
// Queues that violate the index bound are cleared. IsPlaying is always
// loaded as false because nothing plays before the engine is rebuilt.
func (s *QueueStore) Load() error {
	stored, err := s.repo.LoadState()
	if err != nil {
		return err
	}

	state := domain.NewPlaybackState()
	if stored != nil {
		state = stored
	}
	for _, src := range domain.Sources {
		if q := state.Queue(src); !q.Valid() {
			s.logger.Warn("discarding invalid persisted queue",
				slog.String("source", string(src)),
				slog.Int("index", q.Index),
				slog.Int("length", q.Len()))
			state.Queues[src] = domain.NewQueue()
		}
	}
	if !state.ActiveSource.Valid() {
		state.ActiveSource = domain.SourceNormal
	}
	state.IsPlaying = false

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.logger.Debug("state loaded",
		slog.String("active_source", string(state.ActiveSource)),
		slog.Int("active_length", state.ActiveQueue().Len()))
	return nil
}

// State returns a deep copy of the current record.
func (s *QueueStore) State() *domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update applies fn to a draft copy and commits it with a single write.
// If fn, validation or persistence fails, nothing changes.
func (s *QueueStore) Update(fn func(state *domain.PlaybackState) error) error {
	s.mu.Lock()

	draft := s.state.Clone()
	if err := fn(draft); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := draft.Validate(); err != nil {
		s.mu.Unlock()
		s.logger.Warn("rejected invalid state", slog.Any("error", err))
		return err
	}
	if err := s.repo.SaveState(draft); err != nil {
		s.mu.Unlock()
		s.logger.Error("failed to persist state", slog.Any("error", err))
		return domain.NewRepositoryError("save", "state", "write-through failed", err)
	}

	s.state = draft
	snapshot := draft.Clone()
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(domain.NewStateChangedEvent(snapshot))
	}
	return nil
}

// SetCurrentMusic sets the loaded track. Nil clears it.
func (s *QueueStore) SetCurrentMusic(track *domain.Track) error {
	return s.Update(func(state *domain.PlaybackState) error {
		if track == nil {
			state.CurrentMusic = nil
			return nil
		}
		t := *track
		state.CurrentMusic = &t
		return nil
	})
}

// SetPlaying sets the playing flag.
func (s *QueueStore) SetPlaying(playing bool) error {
	return s.Update(func(state *domain.PlaybackState) error {
		state.IsPlaying = playing
		return nil
	})
}

// SetQueue replaces the tracks and index of one queue together.
func (s *QueueStore) SetQueue(source domain.Source, tracks []domain.Track, index int) error {
	if !source.Valid() {
		return domain.ErrInvalidSource
	}
	return s.Update(func(state *domain.PlaybackState) error {
		q := &domain.Queue{Tracks: make([]domain.Track, len(tracks)), Index: index}
		copy(q.Tracks, tracks)
		state.Queues[source] = q
		return nil
	})
}

// SetIndex moves the index of one queue.
func (s *QueueStore) SetIndex(source domain.Source, index int) error {
	if !source.Valid() {
		return domain.ErrInvalidSource
	}
	return s.Update(func(state *domain.PlaybackState) error {
		state.Queue(source).Index = index
		return nil
	})
}

// ClearQueue empties one queue and resets its index.
func (s *QueueStore) ClearQueue(source domain.Source) error {
	if !source.Valid() {
		return domain.ErrInvalidSource
	}
	return s.Update(func(state *domain.PlaybackState) error {
		state.Queues[source] = domain.NewQueue()
		return nil
	})
}

// SetActiveSource selects the live queue.
func (s *QueueStore) SetActiveSource(source domain.Source) error {
	if !source.Valid() {
		return domain.ErrInvalidSource
	}
	return s.Update(func(state *domain.PlaybackState) error {
		state.ActiveSource = source
		return nil
	})
}

// SetPlaylistID records which stored playlist backs the playlist queue.
func (s *QueueStore) SetPlaylistID(id string) error {
	return s.Update(func(state *domain.PlaybackState) error {
		state.CurrentPlaylistID = id
		return nil
	})
}

// SetPosition records the playback position.
func (s *QueueStore) SetPosition(position time.Duration) error {
	if position < 0 {
		return domain.ErrInvalidPosition
	}
	return s.Update(func(state *domain.PlaybackState) error {
		state.Position = position
		return nil
	})
}

// SetBarVisible shows or hides the mini player.
func (s *QueueStore) SetBarVisible(visible bool) error {
	return s.Update(func(state *domain.PlaybackState) error {
		state.BarVisible = visible
		return nil
	})
}
