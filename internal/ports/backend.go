package ports

import (
	"context"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
)

// AudioBackend turns a catalog track into a playable one.
type AudioBackend interface {
	// Handles reports whether this backend can resolve the track.
	Handles(track domain.Track) bool

	// ResolveAudio returns the track with StreamURL set and best-effort metadata.
	// A response without a URL must be reported as an error, never as an empty URL.
	ResolveAudio(ctx context.Context, track domain.Track) (domain.Track, error)
}

// URLProber checks whether a previously resolved URL still serves audio.
type URLProber interface {
	Alive(ctx context.Context, url string) bool
}

// Catalog is the external video catalog search backend.
type Catalog interface {
	// Search returns catalog items matching query with HTML entities decoded.
	// maxResults <= 0 selects the default limit.
	Search(ctx context.Context, query string, maxResults int) ([]domain.CatalogItem, error)

	// RandomPopular returns count random items from the popular music chart.
	RandomPopular(ctx context.Context, count int) ([]domain.CatalogItem, error)
}

// PlayLogSink receives fire-and-forget play notifications.
type PlayLogSink interface {
	// Name identifies the sink in logs.
	Name() string

	// LogPlay records that a track started playing.
	LogPlay(ctx context.Context, track domain.Track) error
}

// WinLogSink receives worldcup winner notifications.
type WinLogSink interface {
	LogWin(ctx context.Context, track domain.Track) error
}

// RankSource exposes the server-side play ranking and worldcup winners.
type RankSource interface {
	MusicRank(ctx context.Context) ([]domain.RankEntry, error)
	TotalWinners(ctx context.Context) ([]domain.RankEntry, error)
}
