package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunesync/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
)

// failingStateRepository fails every save after fail is set.
type failingStateRepository struct {
	*memory.StateRepository
	fail bool
}

func (r *failingStateRepository) SaveState(state *domain.PlaybackState) error {
	if r.fail {
		return errors.New("disk full")
	}
	return r.StateRepository.SaveState(state)
}

func newTestQueueStore(t *testing.T) (*QueueStore, *failingStateRepository, *eventRecorder) {
	t.Helper()
	bus := eventbus.NewSyncEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	rec := &eventRecorder{}
	bus.Subscribe(domain.EventStateChanged, rec.handle)

	repo := &failingStateRepository{StateRepository: memory.NewStateRepository()}
	return NewQueueStore(logger.NewTestLogger(), repo, bus), repo, rec
}

func TestQueueStore_Defaults(t *testing.T) {
	store, _, _ := newTestQueueStore(t)

	state := store.State()
	requireIndexBound(t, state)
	assert.Equal(t, domain.SourceNormal, state.ActiveSource)
	assert.Nil(t, state.CurrentMusic)
	assert.False(t, state.IsPlaying)
}

func TestQueueStore_WriteThrough(t *testing.T) {
	store, repo, rec := newTestQueueStore(t)
	tracks := threeTracks()

	require.NoError(t, store.SetQueue(domain.SourceNormal, tracks, 1))
	require.NoError(t, store.SetCurrentMusic(&tracks[1]))
	require.NoError(t, store.SetPlaying(true))
	require.NoError(t, store.SetPosition(12*time.Second))
	require.NoError(t, store.SetBarVisible(true))

	saved, err := repo.LoadState()
	require.NoError(t, err)
	assert.Equal(t, store.State(), saved)
	assert.Len(t, rec.ofType(domain.EventStateChanged), 5)

	last := rec.ofType(domain.EventStateChanged)[4].(domain.StateChangedEvent)
	assert.True(t, last.State.BarVisible)
}

func TestQueueStore_StateIsACopy(t *testing.T) {
	store, _, _ := newTestQueueStore(t)
	require.NoError(t, store.SetQueue(domain.SourceNormal, threeTracks(), 0))

	state := store.State()
	state.Queue(domain.SourceNormal).Tracks[0].Title = "changed"
	state.Queue(domain.SourceNormal).Index = 2

	fresh := store.State().Queue(domain.SourceNormal)
	assert.Equal(t, "Song A", fresh.Tracks[0].Title)
	assert.Equal(t, 0, fresh.Index)
}

// P1: no mutation can leave an index out of bounds.
func TestQueueStore_RejectsOutOfBoundIndex(t *testing.T) {
	store, _, rec := newTestQueueStore(t)
	require.NoError(t, store.SetQueue(domain.SourceNormal, threeTracks(), 0))
	before := store.State()

	cases := []func() error{
		func() error { return store.SetIndex(domain.SourceNormal, 3) },
		func() error { return store.SetIndex(domain.SourceNormal, domain.NoIndex) },
		func() error { return store.SetQueue(domain.SourcePlaylist, nil, 0) },
		func() error { return store.SetQueue(domain.SourcePlaylist, threeTracks(), domain.NoIndex) },
	}
	for _, fn := range cases {
		var validation *domain.ValidationError
		assert.ErrorAs(t, fn(), &validation)
		assert.Equal(t, before, store.State())
		requireIndexBound(t, store.State())
	}
	assert.Len(t, rec.ofType(domain.EventStateChanged), 1)
}

func TestQueueStore_InvalidArguments(t *testing.T) {
	store, _, _ := newTestQueueStore(t)

	assert.ErrorIs(t, store.SetActiveSource("radio"), domain.ErrInvalidSource)
	assert.ErrorIs(t, store.SetQueue("radio", nil, domain.NoIndex), domain.ErrInvalidSource)
	assert.ErrorIs(t, store.SetIndex("radio", 0), domain.ErrInvalidSource)
	assert.ErrorIs(t, store.ClearQueue("radio"), domain.ErrInvalidSource)
	assert.ErrorIs(t, store.SetPosition(-time.Second), domain.ErrInvalidPosition)
}

func TestQueueStore_FailedWriteDiscardsMutation(t *testing.T) {
	store, repo, rec := newTestQueueStore(t)
	require.NoError(t, store.SetPlaying(true))

	repo.fail = true
	err := store.SetPlaying(false)

	var repoErr *domain.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "save", repoErr.Op)
	assert.True(t, store.State().IsPlaying)
	assert.Len(t, rec.ofType(domain.EventStateChanged), 1)
}

func TestQueueStore_ClearQueueAndSource(t *testing.T) {
	store, _, _ := newTestQueueStore(t)
	require.NoError(t, store.SetQueue(domain.SourcePlaylist, threeTracks(), 2))
	require.NoError(t, store.SetActiveSource(domain.SourcePlaylist))
	require.NoError(t, store.SetPlaylistID("fav"))

	require.NoError(t, store.ClearQueue(domain.SourcePlaylist))
	state := store.State()
	requireIndexBound(t, state)
	assert.True(t, state.ActiveQueue().IsEmpty())
	assert.Equal(t, domain.SourcePlaylist, state.ActiveSource)
	assert.Equal(t, "fav", state.CurrentPlaylistID)
}

func TestQueueStore_Load(t *testing.T) {
	repo := memory.NewStateRepository()
	tracks := threeTracks()

	stored := domain.NewPlaybackState()
	stored.Queues[domain.SourceNormal] = &domain.Queue{Tracks: tracks, Index: 2}
	// Corrupt queue: index past the end
	stored.Queues[domain.SourcePlaylist] = &domain.Queue{Tracks: tracks[:1], Index: 4}
	stored.CurrentMusic = &tracks[2]
	stored.IsPlaying = true
	stored.Position = 42 * time.Second
	require.NoError(t, repo.SaveState(stored))

	store := NewQueueStore(logger.NewTestLogger(), repo, nil)
	require.NoError(t, store.Load())

	state := store.State()
	requireIndexBound(t, state)
	assert.False(t, state.IsPlaying, "nothing plays before resume")
	assert.Equal(t, 2, state.Queue(domain.SourceNormal).Index)
	assert.True(t, state.Queue(domain.SourcePlaylist).IsEmpty())
	assert.Equal(t, "C", state.CurrentMusic.ID)
	assert.Equal(t, 42*time.Second, state.Position)
}

func TestQueueStore_LoadEmpty(t *testing.T) {
	store := NewQueueStore(logger.NewTestLogger(), memory.NewStateRepository(), nil)
	require.NoError(t, store.Load())
	assert.Equal(t, domain.NewPlaybackState(), store.State())
}
