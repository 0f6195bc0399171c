package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// ResumeCoordinator rebuilds the engine from the persisted record once per
// process start. Playback is restored paused at the saved position.
type ResumeCoordinator struct {
	logger *slog.Logger
	engine ports.Engine
	store  *QueueStore
	player *Synchronizer

	once sync.Once
	err  error
}

// NewResumeCoordinator creates a new resume coordinator.
func NewResumeCoordinator(logger *slog.Logger, engine ports.Engine, store *QueueStore, player *Synchronizer) *ResumeCoordinator {
	return &ResumeCoordinator{
		logger: logger.With(slog.String("service", "resume")),
		engine: engine,
		store:  store,
		player: player,
	}
}

// Resume runs the rebuild on the first call and returns its result on
// every call. The store must already be loaded.
func (r *ResumeCoordinator) Resume(ctx context.Context) error {
	r.once.Do(func() {
		r.err = r.player.Exclusive(ctx, r.resume)
	})
	return r.err
}

func (r *ResumeCoordinator) resume(ctx context.Context) error {
	state := r.store.State()
	q := state.ActiveQueue()
	if q.IsEmpty() || !q.Valid() {
		r.logger.Debug("nothing to resume")
		return nil
	}

	if err := r.rebuild(ctx, q, state); err != nil {
		r.logger.Error("resume failed, clearing active queue",
			slog.String("source", string(state.ActiveSource)),
			slog.Any("error", err))
		if fallbackErr := r.fallback(ctx); fallbackErr != nil {
			r.logger.Error("failed to persist fallback state", slog.Any("error", fallbackErr))
		}
		return err
	}

	current := q.Tracks[q.Index]
	err := r.store.Update(func(st *domain.PlaybackState) error {
		st.CurrentMusic = &current
		st.IsPlaying = false
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("playback resumed",
		slog.String("source", string(state.ActiveSource)),
		slog.String("track_id", current.ID),
		slog.Int("index", q.Index),
		slog.Duration("position", state.Position))
	return nil
}

func (r *ResumeCoordinator) rebuild(ctx context.Context, q *domain.Queue, state *domain.PlaybackState) error {
	if err := r.engine.Reset(ctx); err != nil {
		return domain.NewEngineSyncError("reset", err)
	}
	if err := r.engine.Add(ctx, q.Tracks); err != nil {
		return domain.NewEngineSyncError("add", err)
	}
	if err := r.engine.Skip(ctx, q.Index); err != nil {
		return domain.NewEngineSyncError("skip", err)
	}
	if state.Position > 0 {
		if err := r.engine.SeekTo(ctx, state.Position); err != nil {
			return domain.NewEngineSyncError("seek", err)
		}
	}
	return nil
}

// fallback leaves a state nothing can misread: empty engine, nothing
// loaded, active queue cleared.
func (r *ResumeCoordinator) fallback(ctx context.Context) error {
	if err := r.engine.Reset(ctx); err != nil {
		r.logger.Warn("engine reset failed during fallback", slog.Any("error", err))
	}
	return r.store.Update(func(st *domain.PlaybackState) error {
		st.CurrentMusic = nil
		st.IsPlaying = false
		st.Position = 0
		st.Queues[st.ActiveSource] = domain.NewQueue()
		return nil
	})
}
