package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", FallbackArtwork: "fallback.png"}, logger.NewTestLogger())
}

func TestClient_ResolveAudio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/get-youtube-audio", r.URL.Path)
		assert.Equal(t, "vid1", r.URL.Query().Get("videoId"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_ = json.NewEncoder(w).Encode(audioResponse{
			AudioURL:     "https://audio.example/vid1",
			Title:        "Backend Title",
			Author:       "Backend Artist",
			ThumbnailURL: "https://img.example/vid1",
		})
	})

	got, err := client.ResolveAudio(context.Background(), domain.Track{ID: "vid1", Title: "Catalog Title"})
	require.NoError(t, err)
	assert.Equal(t, domain.Track{
		ID:         "vid1",
		StreamURL:  "https://audio.example/vid1",
		Title:      "Backend Title",
		Artist:     "Backend Artist",
		ArtworkURL: "https://img.example/vid1",
	}, got)
}

func TestClient_ResolveAudioFallbacks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(audioResponse{AudioURL: "https://audio.example/x"})
	})

	got, err := client.ResolveAudio(context.Background(), domain.Track{ID: "x", Artist: "Channel"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown Title", got.Title)
	assert.Equal(t, "Channel", got.Artist)
	assert.Equal(t, "fallback.png", got.ArtworkURL)
}

func TestClient_ResolveAudioMissingURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(audioResponse{Title: "no url"})
	})

	_, err := client.ResolveAudio(context.Background(), domain.Track{ID: "x"})
	assert.ErrorIs(t, err, domain.ErrMissingStreamURL)
}

func TestClient_ResolveAudioServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.ResolveAudio(context.Background(), domain.Track{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_NoBaseURL(t *testing.T) {
	client := New(Config{}, logger.NewTestLogger())

	_, err := client.ResolveAudio(context.Background(), domain.Track{ID: "x"})
	assert.ErrorIs(t, err, ErrNoBaseURL)
}

func TestClient_Handles(t *testing.T) {
	client := New(Config{}, logger.NewTestLogger())

	assert.True(t, client.Handles(domain.Track{ID: "dQw4w9WgXcQ"}))
	assert.False(t, client.Handles(domain.Track{ID: "local:/music/a.mp3"}))
}

func TestClient_LogPlayAndWin(t *testing.T) {
	var paths []string
	var bodies []logRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body logRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, body)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	track := domain.Track{ID: "v", Title: "T", Artist: "A", ArtworkURL: "art"}
	require.NoError(t, client.LogPlay(context.Background(), track))
	require.NoError(t, client.LogWin(context.Background(), track))

	assert.Equal(t, []string{"/api/save-play-log", "/api/save-win-log"}, paths)
	assert.Equal(t, logRequest{VideoID: "v", Title: "T", Artist: "A", ThumbnailURL: "art"}, bodies[0])
}

func TestClient_MusicRankAndWinners(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/get-music-rank":
			_, _ = w.Write([]byte(`[{"video_id":"a","title":"A","artist":"AA","thumbnail_url":"ta","play_count":12}]`))
		case "/api/get-total-winner":
			_, _ = w.Write([]byte(`[{"id":"b","title":"B","win_count":3,"last_win_date":"2024-05-01T10:00:00Z"}]`))
		default:
			http.NotFound(w, r)
		}
	})

	rank, err := client.MusicRank(context.Background())
	require.NoError(t, err)
	require.Len(t, rank, 1)
	assert.Equal(t, domain.RankEntry{VideoID: "a", Title: "A", Artist: "AA", ThumbnailURL: "ta", Count: 12}, rank[0])

	winners, err := client.TotalWinners(context.Background())
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, "b", winners[0].VideoID)
	assert.Equal(t, 3, winners[0].Count)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), winners[0].LastWin)
}

func TestProber_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	prober := NewProber(time.Second)
	ctx := context.Background()

	assert.True(t, prober.Alive(ctx, srv.URL+"/ok"))
	assert.False(t, prober.Alive(ctx, srv.URL+"/gone"))
	assert.False(t, prober.Alive(ctx, "ftp://example.com/x"))
	assert.False(t, prober.Alive(ctx, "::not a url"))
}

func TestProber_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	prober := NewProber(0)
	ctx := context.Background()

	assert.True(t, prober.Alive(ctx, "file://"+path))
	assert.False(t, prober.Alive(ctx, "file://"+filepath.Join(dir, "missing.mp3")))
	assert.False(t, prober.Alive(ctx, "file://"+dir))
}
