// Package backend provides a client for the audio-resolution and play-log server.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

const (
	userAgent      = "tunesync/1.0"
	defaultTimeout = 10 * time.Second

	// LocalPrefix marks track ids served from the local filesystem.
	LocalPrefix = domain.LocalPrefix

	unknownTitle  = "Unknown Title"
	unknownArtist = "Unknown Artist"
)

// ErrNoBaseURL is returned when the client is used without a server address.
var ErrNoBaseURL = errors.New("backend base url not configured")

// Config holds the client settings.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	FallbackArtwork string
}

// Client talks to the backend server.
type Client struct {
	httpClient *http.Client
	baseURL    string
	fallback   string
	logger     *slog.Logger
}

// New creates a new backend client.
func New(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		fallback:   cfg.FallbackArtwork,
		logger:     logger.With(slog.String("adapter", "backend")),
	}
}

// audioResponse is the body of /api/get-youtube-audio.
type audioResponse struct {
	AudioURL     string `json:"audioUrl"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// logRequest is the body of the play and win log endpoints.
type logRequest struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// rankRow is one row of the rank endpoints. The server uses snake_case.
type rankRow struct {
	ID           string `json:"id"`
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	ThumbnailURL string `json:"thumbnail_url"`
	PlayCount    int    `json:"play_count"`
	WinCount     int    `json:"win_count"`
	LastWinDate  string `json:"last_win_date"`
}

func (r rankRow) entry() domain.RankEntry {
	e := domain.RankEntry{
		VideoID:      lo.CoalesceOrEmpty(r.VideoID, r.ID),
		Title:        r.Title,
		Artist:       r.Artist,
		ThumbnailURL: r.ThumbnailURL,
		Count:        max(r.PlayCount, r.WinCount),
	}
	if t, err := time.Parse(time.RFC3339, r.LastWinDate); err == nil {
		e.LastWin = t
	}
	return e
}

// Handles reports whether the server can resolve the track.
func (c *Client) Handles(track domain.Track) bool {
	return !strings.HasPrefix(track.ID, LocalPrefix)
}

// ResolveAudio asks the server for a playable URL.
// Missing metadata falls back to the catalog values, then to placeholders.
func (c *Client) ResolveAudio(ctx context.Context, track domain.Track) (domain.Track, error) {
	params := url.Values{}
	params.Set("videoId", track.ID)

	var resp audioResponse
	if err := c.get(ctx, "/api/get-youtube-audio?"+params.Encode(), &resp); err != nil {
		return domain.Track{}, err
	}
	if resp.AudioURL == "" {
		return domain.Track{}, domain.ErrMissingStreamURL
	}

	return domain.Track{
		ID:         track.ID,
		StreamURL:  resp.AudioURL,
		Title:      lo.CoalesceOrEmpty(resp.Title, track.Title, unknownTitle),
		Artist:     lo.CoalesceOrEmpty(resp.Author, track.Artist, unknownArtist),
		ArtworkURL: lo.CoalesceOrEmpty(resp.ThumbnailURL, track.ArtworkURL, c.fallback),
	}, nil
}

// Name identifies the sink in logs.
func (c *Client) Name() string {
	return "backend"
}

// LogPlay records a play on the server.
func (c *Client) LogPlay(ctx context.Context, track domain.Track) error {
	return c.post(ctx, "/api/save-play-log", newLogRequest(track))
}

// LogWin records a worldcup winner on the server.
func (c *Client) LogWin(ctx context.Context, track domain.Track) error {
	return c.post(ctx, "/api/save-win-log", newLogRequest(track))
}

// MusicRank returns the most played tracks.
func (c *Client) MusicRank(ctx context.Context) ([]domain.RankEntry, error) {
	return c.rank(ctx, "/api/get-music-rank")
}

// TotalWinners returns the worldcup winners.
func (c *Client) TotalWinners(ctx context.Context) ([]domain.RankEntry, error) {
	return c.rank(ctx, "/api/get-total-winner")
}

func newLogRequest(track domain.Track) logRequest {
	return logRequest{
		VideoID:      track.ID,
		Title:        track.Title,
		Artist:       track.Artist,
		ThumbnailURL: track.ArtworkURL,
	}
}

func (c *Client) rank(ctx context.Context, path string) ([]domain.RankEntry, error) {
	var rows []rankRow
	if err := c.get(ctx, path, &rows); err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r rankRow, _ int) domain.RankEntry {
		return r.entry()
	}), nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, data, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, result any) error {
	if c.baseURL == "" {
		return ErrNoBaseURL
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("backend request", slog.String("method", method), slog.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Verify interface implementation
var (
	_ ports.AudioBackend = (*Client)(nil)
	_ ports.PlayLogSink  = (*Client)(nil)
	_ ports.WinLogSink   = (*Client)(nil)
	_ ports.RankSource   = (*Client)(nil)
)
