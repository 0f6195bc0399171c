package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunesync/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-key", BaseURL: srv.URL}, logger.NewTestLogger())
}

func TestSearch_QueryAndDecoding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "snippet", q.Get("part"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "/m/04rlf", q.Get("topicId"))
		assert.Equal(t, "10", q.Get("maxResults"))
		assert.Equal(t, "rock & roll", q.Get("q"))
		assert.Equal(t, "test-key", q.Get("key"))

		_, _ = w.Write([]byte(`{"items":[
			{"id":{"videoId":"v1"},"snippet":{"title":"Tom &amp; Jerry&#39;s Song","description":"&quot;live&quot;","channelTitle":"Chan","publishedAt":"2023-01-02T03:04:05Z","thumbnails":{"medium":{"url":"m.jpg"}}}},
			{"id":{"channelId":"c1"},"snippet":{"title":"channel result"}}
		]}`))
	})

	items, err := client.Search(context.Background(), "rock & roll", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "v1", items[0].VideoID)
	assert.Equal(t, "Tom & Jerry's Song", items[0].Title)
	assert.Equal(t, `"live"`, items[0].Description)
	assert.Equal(t, "m.jpg", items[0].Thumbnails.Medium)
	assert.Equal(t, 2023, items[0].PublishedAt.Year())

	track := items[0].Track()
	assert.Equal(t, "v1", track.ID)
	assert.Empty(t, track.StreamURL)
	assert.Equal(t, "Chan", track.Artist)
	assert.Equal(t, "m.jpg", track.ArtworkURL)
}

func TestSearch_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusForbidden)
	})

	_, err := client.Search(context.Background(), "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSearch_NoAPIKey(t *testing.T) {
	client := New(Config{}, logger.NewTestLogger())

	_, err := client.Search(context.Background(), "x", 5)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestRandomPopular_PagesAndSamples(t *testing.T) {
	pages := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/videos", r.URL.Path)
		assert.Equal(t, "mostPopular", q.Get("chart"))
		assert.Equal(t, "10", q.Get("videoCategoryId"))
		assert.Equal(t, "KR", q.Get("regionCode"))
		assert.Equal(t, "50", q.Get("maxResults"))

		pages++
		next := ""
		if pages < 3 {
			next = fmt.Sprintf(`,"nextPageToken":"p%d"`, pages+1)
			assert.Equal(t, pages > 1, q.Get("pageToken") != "")
		}
		fmt.Fprintf(w, `{"items":[{"id":"v%d","snippet":{"title":"t%d"}}]%s}`, pages, pages, next)
	})

	items, err := client.RandomPopular(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].VideoID, items[1].VideoID)
	for _, it := range items {
		assert.Contains(t, []string{"v1", "v2", "v3"}, it.VideoID)
	}
}

func TestRandomPopular_StopsAtPageLimit(t *testing.T) {
	pages := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		pages++
		fmt.Fprintf(w, `{"nextPageToken":"more","items":[{"id":"v%d","snippet":{}}]}`, pages)
	})

	items, err := client.RandomPopular(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, popularMaxPages, pages)
	assert.Len(t, items, popularMaxPages)
}
