package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunesync/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
)

// persistState writes a record as a previous run would have left it and loads it.
func (f *testFixture) persistState(t *testing.T, fn func(st *domain.PlaybackState)) {
	t.Helper()
	state := domain.NewPlaybackState()
	fn(state)
	require.NoError(t, f.stateRepo.SaveState(state))
	require.NoError(t, f.store.Load())
}

func (f *testFixture) newResume() *ResumeCoordinator {
	return NewResumeCoordinator(logger.NewTestLogger(), f.engine, f.store, f.player)
}

// P4: resume restores the index and the position.
func TestResumeCoordinator_RestoresPosition(t *testing.T) {
	f := newTestSynchronizer(t)
	ctx := context.Background()
	tracks := threeTracks()

	f.persistState(t, func(st *domain.PlaybackState) {
		st.ActiveSource = domain.SourcePlaylist
		st.CurrentPlaylistID = "fav"
		st.Queues[domain.SourcePlaylist] = &domain.Queue{Tracks: tracks, Index: 1}
		st.IsPlaying = true
		st.Position = 95 * time.Second
	})

	require.NoError(t, f.newResume().Resume(ctx))

	assert.Equal(t, []string{"A", "B", "C"}, f.engineIDs(t))
	assert.Equal(t, 1, f.engineIndex(t))
	pos, err := f.engine.Position(ctx)
	require.NoError(t, err)
	assert.Equal(t, 95*time.Second, pos)
	assert.NotEqual(t, domain.EngineStatePlaying, f.engineState(t))

	state := f.store.State()
	requireIndexBound(t, state)
	assert.Equal(t, "B", state.CurrentMusic.ID)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, 95*time.Second, state.Position)
	assert.Equal(t, domain.SourcePlaylist, state.ActiveSource)
}

func TestResumeCoordinator_ZeroPositionSkipsSeek(t *testing.T) {
	f := newTestSynchronizer(t)
	f.persistState(t, func(st *domain.PlaybackState) {
		st.Queues[domain.SourceNormal] = &domain.Queue{Tracks: threeTracks(), Index: 0}
	})

	require.NoError(t, f.newResume().Resume(context.Background()))
	assert.Zero(t, f.engine.CountCalls(mock.OpSeek))
	assert.Equal(t, "A", f.store.State().CurrentMusic.ID)
}

func TestResumeCoordinator_NothingToResume(t *testing.T) {
	f := newTestSynchronizer(t)
	f.persistState(t, func(*domain.PlaybackState) {})

	require.NoError(t, f.newResume().Resume(context.Background()))
	assert.Empty(t, f.engine.Calls())
	assert.Nil(t, f.store.State().CurrentMusic)
}

func TestResumeCoordinator_FailsSafe(t *testing.T) {
	f := newTestSynchronizer(t)
	ctx := context.Background()
	tracks := threeTracks()

	f.persistState(t, func(st *domain.PlaybackState) {
		st.Queues[domain.SourceNormal] = &domain.Queue{Tracks: tracks, Index: 2}
		st.Queues[domain.SourcePlaylist] = &domain.Queue{Tracks: tracks[:1], Index: 0}
		st.CurrentMusic = &tracks[2]
		// Longer than any loaded track
		st.Position = time.Hour
	})

	err := f.newResume().Resume(ctx)
	var syncErr *domain.EngineSyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "seek", syncErr.Op)

	assert.Empty(t, f.engineIDs(t))

	state := f.store.State()
	requireIndexBound(t, state)
	assert.Nil(t, state.CurrentMusic)
	assert.False(t, state.IsPlaying)
	assert.Zero(t, state.Position)
	assert.True(t, state.ActiveQueue().IsEmpty())
	// The inert queue survives
	assert.Equal(t, 1, state.Queue(domain.SourcePlaylist).Len())

	// The persisted record is the safe one
	saved, err := f.stateRepo.LoadState()
	require.NoError(t, err)
	assert.True(t, saved.Queue(domain.SourceNormal).IsEmpty())
}

func TestResumeCoordinator_RunsOnce(t *testing.T) {
	f := newTestSynchronizer(t)
	ctx := context.Background()
	f.persistState(t, func(st *domain.PlaybackState) {
		st.Queues[domain.SourceNormal] = &domain.Queue{Tracks: threeTracks(), Index: 0}
	})

	resume := f.newResume()
	require.NoError(t, resume.Resume(ctx))
	require.NoError(t, resume.Resume(ctx))
	assert.Equal(t, 1, f.engine.CountCalls(mock.OpAdd))
}
