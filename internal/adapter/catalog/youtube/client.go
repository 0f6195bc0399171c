// Package youtube provides a catalog client for the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/net/html"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

const (
	// DefaultBaseURL is the YouTube Data API base URL.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// DefaultMaxResults is the search page size when none is given.
	DefaultMaxResults = 10

	// musicTopicID restricts search to the Music topic.
	musicTopicID = "/m/04rlf"

	// musicCategoryID is the Music video category for charts.
	musicCategoryID = "10"

	popularPageSize = 50
	popularMaxPages = 4

	userAgent = "tunesync/1.0"
)

// ErrNoAPIKey is returned when the client has no API key.
var ErrNoAPIKey = errors.New("youtube api key not configured")

// Config holds the client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	RegionCode string
	Timeout    time.Duration
}

// Client is a YouTube Data API client.
type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *slog.Logger
}

// New creates a new catalog client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RegionCode == "" {
		cfg.RegionCode = "KR"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger.With(slog.String("adapter", "youtube")),
	}
}

type thumbnail struct {
	URL string `json:"url"`
}

type snippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	Thumbnails   struct {
		Default thumbnail `json:"default"`
		Medium  thumbnail `json:"medium"`
		High    thumbnail `json:"high"`
	} `json:"thumbnails"`
}

// searchResponse is the body of /search. Item ids are objects there.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

// videosResponse is the body of /videos. Item ids are plain strings there.
type videosResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID      string  `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

func (s snippet) item(videoID string) domain.CatalogItem {
	published, _ := time.Parse(time.RFC3339, s.PublishedAt)
	return domain.CatalogItem{
		VideoID:      videoID,
		Title:        html.UnescapeString(s.Title),
		Description:  html.UnescapeString(s.Description),
		ChannelTitle: s.ChannelTitle,
		Thumbnails: domain.Thumbnails{
			Default: s.Thumbnails.Default.URL,
			Medium:  s.Thumbnails.Medium.URL,
			High:    s.Thumbnails.High.URL,
		},
		PublishedAt: published,
	}
}

// Search returns music videos matching query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.CatalogItem, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("type", "video")
	params.Set("topicId", musicTopicID)

	var resp searchResponse
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.CatalogItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID == "" {
			continue
		}
		items = append(items, it.Snippet.item(it.ID.VideoID))
	}
	return items, nil
}

// RandomPopular samples count items from the most popular music chart.
func (c *Client) RandomPopular(ctx context.Context, count int) ([]domain.CatalogItem, error) {
	var all []domain.CatalogItem
	pageToken := ""

	for page := 0; page < popularMaxPages; page++ {
		params := url.Values{}
		params.Set("part", "snippet,contentDetails")
		params.Set("chart", "mostPopular")
		params.Set("videoCategoryId", musicCategoryID)
		params.Set("maxResults", strconv.Itoa(popularPageSize))
		params.Set("regionCode", c.cfg.RegionCode)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var resp videosResponse
		if err := c.get(ctx, "/videos", params, &resp); err != nil {
			return nil, err
		}
		for _, it := range resp.Items {
			all = append(all, it.Snippet.item(it.ID))
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	c.logger.Debug("popular chart fetched", slog.Int("items", len(all)))
	return lo.Samples(all, count), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if c.cfg.APIKey == "" {
		return ErrNoAPIKey
	}
	params.Set("key", c.cfg.APIKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Verify interface implementation
var _ ports.Catalog = (*Client)(nil)
