package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// PlayNotifier is told about every committed play request.
// Implementations must not block.
type PlayNotifier interface {
	NotifyPlay(track domain.Track)
}

// Synchronizer keeps the media engine and the QueueStore consistent.
// It is the only component that issues engine commands; every operation
// runs under a single mutex so engine mutations never interleave.
//
// A play request moves through resolving, engine syncing and committing.
// A failure at any stage leaves the store untouched.
type Synchronizer struct {
	// Dependencies (injected)
	logger    *slog.Logger
	engine    ports.Engine
	store     *QueueStore
	resolver  TrackResolver
	playlists ports.PlaylistRepository
	bus       ports.EventBus
	notifier  PlayNotifier

	// Concurrency control
	mu sync.Mutex
}

// NewSynchronizer creates a new synchronizer.
// playlists and notifier may be nil.
func NewSynchronizer(
	logger *slog.Logger,
	engine ports.Engine,
	store *QueueStore,
	resolver TrackResolver,
	playlists ports.PlaylistRepository,
	bus ports.EventBus,
	notifier PlayNotifier,
) *Synchronizer {
	return &Synchronizer{
		logger:    logger.With(slog.String("service", "synchronizer")),
		engine:    engine,
		store:     store,
		resolver:  resolver,
		playlists: playlists,
		bus:       bus,
		notifier:  notifier,
	}
}

// Exclusive runs fn while holding the synchronizer lock.
// fn must not call other Synchronizer methods.
func (s *Synchronizer) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

// PlayTrack resolves track and plays it, merging it into the engine queue
// instead of replacing it. A track already queued (by id) is skipped to,
// never added twice.
func (s *Synchronizer) PlayTrack(ctx context.Context, track domain.Track, source domain.Source, playlistID string) error {
	if !source.Valid() {
		return domain.ErrInvalidSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("play track requested",
		slog.String("track_id", track.ID),
		slog.String("source", string(source)))

	resolved, err := s.resolver.Resolve(ctx, track)
	if err != nil {
		return err
	}

	state := s.store.State()
	if source != state.ActiveSource {
		// Merging into another source's live queue would mix the two queues
		target := state.Queue(source)
		if err := s.rebuild(ctx, target.Tracks, max(target.Index, 0)); err != nil {
			return err
		}
	}

	if err := s.syncTrack(ctx, resolved, state.Queue(source)); err != nil {
		return err
	}
	if err := s.playIfIdle(ctx); err != nil {
		return err
	}

	queue, index, err := s.engineSnapshot(ctx)
	if err != nil {
		return err
	}

	err = s.store.Update(func(st *domain.PlaybackState) error {
		t := resolved
		st.CurrentMusic = &t
		st.IsPlaying = true
		st.Position = 0
		st.ActiveSource = source
		setPlaylistID(st, source, playlistID)
		st.Queues[source] = &domain.Queue{Tracks: queue, Index: index}
		st.BarVisible = true
		return nil
	})
	if err != nil {
		return err
	}

	s.committed(resolved, source, index)
	return nil
}

// syncTrack places resolved in the engine queue and skips to it.
func (s *Synchronizer) syncTrack(ctx context.Context, resolved domain.Track, target *domain.Queue) error {
	live, err := s.engine.Queue(ctx)
	if err != nil {
		return domain.NewEngineSyncError("queue", err)
	}

	if i := indexOfTrack(live, resolved.ID); i >= 0 {
		if live[i].StreamURL != resolved.StreamURL {
			if err := s.engine.Replace(ctx, i, resolved); err != nil {
				return domain.NewEngineSyncError("replace", err)
			}
		}
		if err := s.engine.Skip(ctx, i); err != nil {
			return domain.NewEngineSyncError("skip", err)
		}
		return nil
	}

	if j := indexOfTrack(target.Tracks, resolved.ID); j >= 0 {
		// The store knows the track but the engine lost it: reload the
		// store's ordering instead of appending out of place
		tracks := slices.Clone(target.Tracks)
		tracks[j] = resolved
		return s.rebuild(ctx, tracks, j)
	}

	if err := s.engine.Add(ctx, []domain.Track{resolved}); err != nil {
		return domain.NewEngineSyncError("add", err)
	}
	if err := s.engine.Skip(ctx, len(live)); err != nil {
		return domain.NewEngineSyncError("skip", err)
	}
	return nil
}

// PlayEntireQueue replaces the engine queue with the stored queue for
// source and plays from startID, or from the top when startID is empty
// or unknown.
func (s *Synchronizer) PlayEntireQueue(ctx context.Context, source domain.Source, startID, playlistID string) error {
	if !source.Valid() {
		return domain.ErrInvalidSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.playQueue(ctx, source, s.store.State().Queue(source).Tracks, startID, playlistID)
}

// PlayTracks is PlayEntireQueue over tracks instead of the stored queue.
func (s *Synchronizer) PlayTracks(ctx context.Context, source domain.Source, tracks []domain.Track, startID, playlistID string) error {
	if !source.Valid() {
		return domain.ErrInvalidSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.playQueue(ctx, source, tracks, startID, playlistID)
}

func (s *Synchronizer) playQueue(ctx context.Context, source domain.Source, tracks []domain.Track, startID, playlistID string) error {
	if len(tracks) == 0 {
		return domain.ErrQueueEmpty
	}

	start := max(indexOfTrack(tracks, startID), 0)
	resolved, err := s.resolver.Resolve(ctx, tracks[start])
	if err != nil {
		return err
	}
	tracks = slices.Clone(tracks)
	tracks[start] = resolved

	if err := s.rebuild(ctx, tracks, start); err != nil {
		return err
	}
	if err := s.playIfIdle(ctx); err != nil {
		return err
	}

	queue, index, err := s.engineSnapshot(ctx)
	if err != nil {
		return err
	}
	current := queue[index]

	err = s.store.Update(func(st *domain.PlaybackState) error {
		st.CurrentMusic = &current
		st.IsPlaying = true
		st.Position = 0
		st.ActiveSource = source
		setPlaylistID(st, source, playlistID)
		st.Queues[source] = &domain.Queue{Tracks: queue, Index: index}
		st.BarVisible = true
		return nil
	})
	if err != nil {
		return err
	}

	s.committed(current, source, index)
	return nil
}

// DeleteTrack removes the track at index from the active queue.
//
// Removing the only track stops everything. Removing the current track
// moves to the previous one (index 0 stays at 0), whether or not it was
// last. Removing any other track only shifts the index.
func (s *Synchronizer) DeleteTrack(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.State()
	return s.deleteTrack(ctx, state, index)
}

func (s *Synchronizer) deleteTrack(ctx context.Context, state *domain.PlaybackState, index int) error {
	source := state.ActiveSource
	q := state.ActiveQueue()
	if index < 0 || index >= q.Len() {
		return domain.ErrInvalidIndex
	}
	deleted := q.Tracks[index]

	s.logger.Debug("delete track",
		slog.String("track_id", deleted.ID),
		slog.Int("index", index),
		slog.Int("current", q.Index))

	if q.Len() == 1 {
		if err := s.engine.Reset(ctx); err != nil {
			return domain.NewEngineSyncError("reset", err)
		}
		err := s.store.Update(func(st *domain.PlaybackState) error {
			st.CurrentMusic = nil
			st.IsPlaying = false
			st.Position = 0
			st.Queues[source] = domain.NewQueue()
			st.BarVisible = false
			return nil
		})
		if err != nil {
			return err
		}
		s.removeFromStoredPlaylist(state, deleted.ID)
		return nil
	}

	if err := s.mirror(ctx, q); err != nil {
		return err
	}

	wasCurrent := index == q.Index
	if err := s.engine.Remove(ctx, index); err != nil {
		return domain.NewEngineSyncError("remove", err)
	}
	if wasCurrent {
		if err := s.engine.Skip(ctx, max(index-1, 0)); err != nil {
			return domain.NewEngineSyncError("skip", err)
		}
	}

	queue, active, err := s.engineSnapshot(ctx)
	if err != nil {
		return err
	}

	err = s.store.Update(func(st *domain.PlaybackState) error {
		st.Queues[source] = &domain.Queue{Tracks: queue, Index: active}
		if wasCurrent {
			current := queue[active]
			st.CurrentMusic = &current
			st.Position = 0
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeFromStoredPlaylist(state, deleted.ID)
	return nil
}

// RemoveFromQueue removes trackID from the queue for source.
// On the active queue this is DeleteTrack; on the inert queue only the
// store changes. A track that is not queued is ignored.
func (s *Synchronizer) RemoveFromQueue(ctx context.Context, source domain.Source, trackID string) error {
	if !source.Valid() {
		return domain.ErrInvalidSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.State()
	q := state.Queue(source)
	index := indexOfTrack(q.Tracks, trackID)
	if index < 0 {
		return nil
	}
	if source == state.ActiveSource {
		return s.deleteTrack(ctx, state, index)
	}

	return s.store.Update(func(st *domain.PlaybackState) error {
		target := st.Queue(source)
		target.Tracks = slices.Delete(target.Tracks, index, index+1)
		switch {
		case len(target.Tracks) == 0:
			target.Index = domain.NoIndex
		case index < target.Index || target.Index >= len(target.Tracks):
			target.Index--
		}
		return nil
	})
}

// SwitchActiveSource makes source the live queue. Switching to the
// playlist queue requires a stored playlist behind it; otherwise
// domain.ErrNoActivePlaylist is returned and nothing changes.
// Playback is not started unless it was already playing.
func (s *Synchronizer) SwitchActiveSource(ctx context.Context, source domain.Source) error {
	if !source.Valid() {
		return domain.ErrInvalidSource
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.State()
	if source == domain.SourcePlaylist && !s.playlistExists(state.CurrentPlaylistID) {
		return domain.ErrNoActivePlaylist
	}
	if source == state.ActiveSource {
		return nil
	}

	target := state.Queue(source)
	loaded := !target.IsEmpty() && target.Valid()
	if loaded {
		if err := s.rebuild(ctx, target.Tracks, target.Index); err != nil {
			return err
		}
		if state.IsPlaying {
			if err := s.engine.Play(ctx); err != nil {
				return domain.NewEngineSyncError("play", err)
			}
		}
	} else if err := s.rebuild(ctx, nil, 0); err != nil {
		return err
	}

	return s.store.Update(func(st *domain.PlaybackState) error {
		st.ActiveSource = source
		st.Position = 0
		if loaded {
			st.CurrentMusic = target.Current()
			return nil
		}
		// Nothing to play: the old queue stays inert in its slot.
		st.CurrentMusic = nil
		st.IsPlaying = false
		st.BarVisible = false
		return nil
	})
}

// Next skips to the following track, wrapping to the first.
func (s *Synchronizer) Next(ctx context.Context) error {
	return s.step(ctx, 1)
}

// Previous skips to the preceding track, wrapping to the last.
func (s *Synchronizer) Previous(ctx context.Context) error {
	return s.step(ctx, -1)
}

func (s *Synchronizer) step(ctx context.Context, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.store.State().ActiveQueue()
	if q.IsEmpty() {
		return nil
	}
	n := q.Len()
	return s.skipTo(ctx, q, ((q.Index+delta)%n+n)%n)
}

// SkipTo moves playback to index in the active queue.
func (s *Synchronizer) SkipTo(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.store.State().ActiveQueue()
	if index < 0 || index >= q.Len() {
		return domain.ErrInvalidIndex
	}
	return s.skipTo(ctx, q, index)
}

func (s *Synchronizer) skipTo(ctx context.Context, q *domain.Queue, index int) error {
	if err := s.mirror(ctx, q); err != nil {
		return err
	}
	if err := s.engine.Skip(ctx, index); err != nil {
		return domain.NewEngineSyncError("skip", err)
	}

	current := q.Tracks[index]
	return s.store.Update(func(st *domain.PlaybackState) error {
		st.ActiveQueue().Index = index
		st.CurrentMusic = &current
		st.Position = 0
		return nil
	})
}

// TogglePlayback pauses when playing and plays the current track otherwise.
// With nothing loaded it does nothing.
func (s *Synchronizer) TogglePlayback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.State()
	if state.IsPlaying {
		if err := s.engine.Pause(ctx); err != nil {
			return domain.NewEngineSyncError("pause", err)
		}
		position, err := s.engine.Position(ctx)
		if err != nil {
			return domain.NewEngineSyncError("position", err)
		}
		return s.store.Update(func(st *domain.PlaybackState) error {
			st.IsPlaying = false
			st.Position = position
			return nil
		})
	}

	if state.CurrentMusic == nil || state.ActiveQueue().IsEmpty() {
		return nil
	}
	if err := s.mirror(ctx, state.ActiveQueue()); err != nil {
		return err
	}
	if err := s.engine.Play(ctx); err != nil {
		return domain.NewEngineSyncError("play", err)
	}
	return s.store.SetPlaying(true)
}

// Seek moves playback to position and records it.
func (s *Synchronizer) Seek(ctx context.Context, position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.SeekTo(ctx, position); err != nil {
		return domain.NewEngineSyncError("seek", err)
	}
	return s.store.SetPosition(position)
}

// StopPlaylist clears the playlist queue when playlistID is the playlist
// behind it. The engine is reset only when that queue is live.
func (s *Synchronizer) StopPlaylist(ctx context.Context, playlistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.State()
	if playlistID == "" || state.CurrentPlaylistID != playlistID {
		return nil
	}

	live := state.ActiveSource == domain.SourcePlaylist
	if live {
		if err := s.engine.Reset(ctx); err != nil {
			return domain.NewEngineSyncError("reset", err)
		}
	}

	s.logger.Info("stopping deleted playlist", slog.String("playlist_id", playlistID))
	return s.store.Update(func(st *domain.PlaybackState) error {
		st.CurrentPlaylistID = ""
		st.Queues[domain.SourcePlaylist] = domain.NewQueue()
		if live {
			st.ActiveSource = domain.SourceNormal
			st.CurrentMusic = nil
			st.IsPlaying = false
			st.Position = 0
			st.BarVisible = false
		}
		return nil
	})
}

// RestartFromTop skips the engine to its first track and plays.
// It implements the repeat-all policy after the queue ends.
func (s *Synchronizer) RestartFromTop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	live, err := s.engine.Queue(ctx)
	if err != nil {
		return domain.NewEngineSyncError("queue", err)
	}
	if len(live) == 0 || !sameIDs(live, s.store.State().ActiveQueue().Tracks) {
		return nil
	}

	if err := s.engine.Skip(ctx, 0); err != nil {
		return domain.NewEngineSyncError("skip", err)
	}
	if err := s.engine.Play(ctx); err != nil {
		return domain.NewEngineSyncError("play", err)
	}

	first := live[0]
	return s.store.Update(func(st *domain.PlaybackState) error {
		st.CurrentMusic = &first
		st.IsPlaying = true
		st.Position = 0
		st.Queues[st.ActiveSource] = &domain.Queue{Tracks: live, Index: 0}
		return nil
	})
}

// rebuild resets the engine to tracks with index active.
func (s *Synchronizer) rebuild(ctx context.Context, tracks []domain.Track, index int) error {
	if err := s.engine.Reset(ctx); err != nil {
		return domain.NewEngineSyncError("reset", err)
	}
	if len(tracks) == 0 {
		return nil
	}
	if err := s.engine.Add(ctx, tracks); err != nil {
		return domain.NewEngineSyncError("add", err)
	}
	if err := s.engine.Skip(ctx, index); err != nil {
		return domain.NewEngineSyncError("skip", err)
	}
	return nil
}

// mirror rebuilds the engine when its queue differs from q by id.
func (s *Synchronizer) mirror(ctx context.Context, q *domain.Queue) error {
	live, err := s.engine.Queue(ctx)
	if err != nil {
		return domain.NewEngineSyncError("queue", err)
	}
	if sameIDs(live, q.Tracks) {
		return nil
	}

	s.logger.Debug("engine queue diverged, rebuilding",
		slog.Int("engine_length", len(live)),
		slog.Int("store_length", q.Len()))
	return s.rebuild(ctx, q.Tracks, max(q.Index, 0))
}

// playIfIdle starts playback unless the engine is already playing or buffering.
func (s *Synchronizer) playIfIdle(ctx context.Context) error {
	state, err := s.engine.PlaybackState(ctx)
	if err != nil {
		return domain.NewEngineSyncError("state", err)
	}
	if state.IsActive() {
		return nil
	}
	if err := s.engine.Play(ctx); err != nil {
		return domain.NewEngineSyncError("play", err)
	}
	return nil
}

// engineSnapshot reads the engine queue and its active index.
func (s *Synchronizer) engineSnapshot(ctx context.Context) ([]domain.Track, int, error) {
	queue, err := s.engine.Queue(ctx)
	if err != nil {
		return nil, domain.NoIndex, domain.NewEngineSyncError("queue", err)
	}
	index, ok, err := s.engine.ActiveTrackIndex(ctx)
	if err != nil {
		return nil, domain.NoIndex, domain.NewEngineSyncError("index", err)
	}
	if !ok || index < 0 || index >= len(queue) {
		return nil, domain.NoIndex, domain.NewEngineSyncError("index", domain.ErrInvalidIndex)
	}
	return queue, index, nil
}

// committed runs the side effects of a successful play request.
func (s *Synchronizer) committed(track domain.Track, source domain.Source, index int) {
	s.logger.Info("now playing",
		slog.String("track_id", track.ID),
		slog.String("title", track.Title),
		slog.String("source", string(source)),
		slog.Int("index", index))

	if s.bus != nil {
		s.bus.Publish(domain.NewTrackSyncedEvent(track, source, index))
	}
	if s.notifier != nil {
		s.notifier.NotifyPlay(track)
	}
}

func (s *Synchronizer) playlistExists(id string) bool {
	return id != "" && s.playlists != nil && s.playlists.Exists(id)
}

// removeFromStoredPlaylist keeps the stored playlist in step with
// deletions from the queue it is playing in.
func (s *Synchronizer) removeFromStoredPlaylist(state *domain.PlaybackState, trackID string) {
	if state.ActiveSource != domain.SourcePlaylist || !s.playlistExists(state.CurrentPlaylistID) {
		return
	}

	playlist, err := s.playlists.Load(state.CurrentPlaylistID)
	if err != nil {
		s.logger.Warn("failed to load playing playlist", slog.Any("error", err))
		return
	}
	before := len(playlist.Tracks)
	playlist.Tracks = lo.Reject(playlist.Tracks, func(t domain.StoredTrack, _ int) bool {
		return t.ID == trackID
	})
	if len(playlist.Tracks) == before {
		return
	}
	playlist.UpdatedAt = time.Now()

	if err := s.playlists.Save(playlist); err != nil {
		s.logger.Warn("failed to update playing playlist", slog.Any("error", err))
		return
	}
	if s.bus != nil {
		s.bus.Publish(domain.NewPlaylistUpdatedEvent(*playlist))
	}
}

// setPlaylistID records the playlist behind a play request. Search plays
// without a playlist keep the association so the inert playlist queue can
// still be switched back to.
func setPlaylistID(st *domain.PlaybackState, source domain.Source, playlistID string) {
	if source == domain.SourcePlaylist || playlistID != "" {
		st.CurrentPlaylistID = playlistID
	}
}

func indexOfTrack(tracks []domain.Track, id string) int {
	if id == "" {
		return -1
	}
	_, index, _ := lo.FindIndexOf(tracks, func(t domain.Track) bool {
		return t.ID == id
	})
	return index
}

func sameIDs(a, b []domain.Track) bool {
	return slices.EqualFunc(a, b, func(x, y domain.Track) bool {
		return x.ID == y.ID
	})
}
