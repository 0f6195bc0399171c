package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunesync/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
)

// Helper to create an unresolved test track
func createTestTrack(id, title string) domain.Track {
	return domain.Track{
		ID:         id,
		Title:      title,
		Artist:     "Test Artist",
		ArtworkURL: "https://img.example/" + id + ".jpg",
	}
}

func streamURL(id string) string {
	return "https://cdn.example/" + id
}

// fakeBackend resolves every track to a fixed URL and counts calls.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (b *fakeBackend) Handles(domain.Track) bool { return true }

func (b *fakeBackend) ResolveAudio(_ context.Context, track domain.Track) (domain.Track, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls[track.ID]++
	if err := b.fail[track.ID]; err != nil {
		return domain.Track{}, err
	}
	track.StreamURL = streamURL(track.ID)
	return track, nil
}

func (b *fakeBackend) setFailure(id string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[id] = err
}

func (b *fakeBackend) callCount(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[id]
}

// playRecorder records play notifications.
type playRecorder struct {
	mu     sync.Mutex
	played []string
}

func (r *playRecorder) NotifyPlay(track domain.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, track.ID)
}

func (r *playRecorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.played...)
}

// eventRecorder collects events published on the bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *eventRecorder) handle(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) ofType(t domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// testFixture wires the playback core over the in-memory engine and repositories.
type testFixture struct {
	engine    *mock.Engine
	bus       *eventbus.SyncEventBus
	stateRepo *memory.StateRepository
	playlists *memory.PlaylistRepository
	store     *QueueStore
	backend   *fakeBackend
	resolver  *Resolver
	player    *Synchronizer
	plays     *playRecorder
	events    *eventRecorder
}

// Helper to create a test synchronizer with all of its collaborators
func newTestSynchronizer(t *testing.T) *testFixture {
	t.Helper()

	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	f := &testFixture{
		engine:    mock.NewEngine(bus),
		bus:       bus,
		stateRepo: memory.NewStateRepository(),
		playlists: memory.NewPlaylistRepository(),
		backend:   newFakeBackend(),
		plays:     &playRecorder{},
		events:    &eventRecorder{},
	}
	bus.SubscribeAll(f.events.handle)

	f.store = NewQueueStore(log, f.stateRepo, bus)
	f.resolver = NewResolver(log, 0, 0, nil, f.backend)
	f.player = NewSynchronizer(log, f.engine, f.store, f.resolver, f.playlists, bus, f.plays)
	return f
}

// seedQueue writes a queue directly into the store.
func (f *testFixture) seedQueue(t *testing.T, source domain.Source, tracks []domain.Track, index int) {
	t.Helper()
	require.NoError(t, f.store.SetQueue(source, tracks, index))
}

// seedPlaylist stores a playlist with the given tracks.
func (f *testFixture) seedPlaylist(t *testing.T, id string, tracks ...domain.Track) {
	t.Helper()
	stored := make([]domain.StoredTrack, len(tracks))
	for i, tr := range tracks {
		stored[i] = domain.StoredTrack{Track: tr}
	}
	require.NoError(t, f.playlists.Save(&domain.StoredPlaylist{ID: id, Title: id, Tracks: stored}))
}

func (f *testFixture) engineIDs(t *testing.T) []string {
	t.Helper()
	q, err := f.engine.Queue(context.Background())
	require.NoError(t, err)
	return trackIDs(q)
}

func (f *testFixture) engineIndex(t *testing.T) int {
	t.Helper()
	idx, _, err := f.engine.ActiveTrackIndex(context.Background())
	require.NoError(t, err)
	return idx
}

func (f *testFixture) engineState(t *testing.T) domain.EngineState {
	t.Helper()
	st, err := f.engine.PlaybackState(context.Background())
	require.NoError(t, err)
	return st
}

func trackIDs(tracks []domain.Track) []string {
	out := make([]string, len(tracks))
	for i, tr := range tracks {
		out[i] = tr.ID
	}
	return out
}

// requireIndexBound checks that every queue's index is NoIndex exactly
// when the queue is empty and in range otherwise.
func requireIndexBound(t *testing.T, state *domain.PlaybackState) {
	t.Helper()
	for _, src := range domain.Sources {
		q := state.Queue(src)
		if q.IsEmpty() {
			require.Equal(t, domain.NoIndex, q.Index, "empty %s queue must have no index", src)
			continue
		}
		require.GreaterOrEqual(t, q.Index, 0, "%s index below range", src)
		require.Less(t, q.Index, q.Len(), "%s index above range", src)
	}
}
