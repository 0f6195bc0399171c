package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
)

// Helper to create a test playlist service on top of the synchronizer fixture
func newTestPlaylistService(t *testing.T) (*PlaylistService, *testFixture) {
	t.Helper()
	f := newTestSynchronizer(t)
	s := NewPlaylistService(logger.NewTestLogger(), f.playlists, f.store, f.player, f.bus)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s, f
}

func TestPlaylistService_Create(t *testing.T) {
	s, f := newTestPlaylistService(t)

	playlist, err := s.Create("  Road Trip ")
	require.NoError(t, err)
	assert.Equal(t, "Road Trip", playlist.Title)
	assert.True(t, strings.HasPrefix(playlist.ID, "Road Trip_"))
	assert.Len(t, playlist.ID, len("Road Trip_")+36)
	assert.Empty(t, playlist.Tracks)
	assert.True(t, f.playlists.Exists(playlist.ID))
	assert.Len(t, f.events.ofType(domain.EventPlaylistUpdated), 1)

	other, err := s.Create("Road Trip")
	require.NoError(t, err)
	assert.NotEqual(t, playlist.ID, other.ID)

	_, err = s.Create("   ")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)

	all, err := s.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPlaylistService_AddTrack(t *testing.T) {
	s, _ := newTestPlaylistService(t)
	playlist, err := s.Create("Mix")
	require.NoError(t, err)

	track := createTestTrack("A", "Song A")
	track.StreamURL = streamURL("A")
	require.NoError(t, s.AddTrack(playlist.ID, track))
	assert.ErrorIs(t, s.AddTrack(playlist.ID, track), domain.ErrDuplicateTrack)
	assert.ErrorIs(t, s.AddTrack(playlist.ID, domain.Track{}), domain.ErrMissingTrackID)
	assert.ErrorIs(t, s.AddTrack("missing", track), domain.ErrPlaylistNotFound)

	got, err := s.Get(playlist.ID)
	require.NoError(t, err)
	require.Len(t, got.Tracks, 1)
	assert.Equal(t, "A", got.Tracks[0].ID)
	assert.Empty(t, got.Tracks[0].StreamURL, "stream urls are not stored")
	assert.Equal(t, s.now(), got.Tracks[0].AddedAt)
}

func TestPlaylistService_Rename(t *testing.T) {
	s, _ := newTestPlaylistService(t)
	playlist, err := s.Create("Old")
	require.NoError(t, err)

	require.NoError(t, s.Rename(playlist.ID, "New"))
	got, err := s.Get(playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, playlist.ID, got.ID)

	assert.Error(t, s.Rename(playlist.ID, ""))
	assert.ErrorIs(t, s.Rename("missing", "x"), domain.ErrPlaylistNotFound)
}

func TestPlaylistService_Play(t *testing.T) {
	s, f := newTestPlaylistService(t)
	ctx := context.Background()

	playlist, err := s.Create("Mix")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Play(ctx, playlist.ID, ""), domain.ErrQueueEmpty)

	for _, tr := range threeTracks() {
		require.NoError(t, s.AddTrack(playlist.ID, tr))
	}
	require.NoError(t, s.Play(ctx, playlist.ID, "B"))

	assert.Equal(t, []string{"A", "B", "C"}, f.engineIDs(t))
	assert.Equal(t, 1, f.engineIndex(t))

	state := f.store.State()
	assert.Equal(t, domain.SourcePlaylist, state.ActiveSource)
	assert.Equal(t, playlist.ID, state.CurrentPlaylistID)
	assert.Equal(t, "B", state.CurrentMusic.ID)
}

func TestPlaylistService_RemoveTrack_WhilePlaying(t *testing.T) {
	s, f := newTestPlaylistService(t)
	ctx := context.Background()

	playlist, err := s.Create("Mix")
	require.NoError(t, err)
	for _, tr := range threeTracks() {
		require.NoError(t, s.AddTrack(playlist.ID, tr))
	}
	require.NoError(t, s.Play(ctx, playlist.ID, "A"))

	require.NoError(t, s.RemoveTrack(ctx, playlist.ID, "C"))
	assert.Equal(t, []string{"A", "B"}, f.engineIDs(t))
	assert.Equal(t, []string{"A", "B"}, trackIDs(f.store.State().Queue(domain.SourcePlaylist).Tracks))

	got, err := s.Get(playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, trackIDs(got.PlainTracks()))

	assert.ErrorIs(t, s.RemoveTrack(ctx, playlist.ID, "C"), domain.ErrTrackNotFound)
}

func TestPlaylistService_RemoveTrack_NotPlaying(t *testing.T) {
	s, f := newTestPlaylistService(t)
	ctx := context.Background()

	playlist, err := s.Create("Mix")
	require.NoError(t, err)
	require.NoError(t, s.AddTrack(playlist.ID, createTestTrack("A", "Song A")))
	require.NoError(t, f.player.PlayTrack(ctx, createTestTrack("A", "Song A"), domain.SourceNormal, ""))

	require.NoError(t, s.RemoveTrack(ctx, playlist.ID, "A"))
	// The search queue holding the same track is untouched
	assert.Equal(t, []string{"A"}, f.engineIDs(t))
	assert.Equal(t, "A", f.store.State().CurrentMusic.ID)
}

func TestPlaylistService_Delete_StopsPlayback(t *testing.T) {
	s, f := newTestPlaylistService(t)
	ctx := context.Background()

	playlist, err := s.Create("Mix")
	require.NoError(t, err)
	require.NoError(t, s.AddTrack(playlist.ID, createTestTrack("A", "Song A")))
	require.NoError(t, s.Play(ctx, playlist.ID, ""))

	require.NoError(t, s.Delete(ctx, playlist.ID))

	assert.False(t, f.playlists.Exists(playlist.ID))
	assert.Empty(t, f.engineIDs(t))
	state := f.store.State()
	assert.Nil(t, state.CurrentMusic)
	assert.Equal(t, domain.SourceNormal, state.ActiveSource)
	assert.Empty(t, state.CurrentPlaylistID)

	deleted := f.events.ofType(domain.EventPlaylistDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, playlist.ID, deleted[0].(domain.PlaylistDeletedEvent).PlaylistID)

	assert.ErrorIs(t, s.Delete(ctx, playlist.ID), domain.ErrPlaylistNotFound)
}
