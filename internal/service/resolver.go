package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/samber/lo"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

const (
	// DefaultResolveTTL is how long a resolved stream URL is trusted.
	DefaultResolveTTL = 3 * time.Hour

	// DefaultResolveCacheSize bounds the number of cached tracks.
	DefaultResolveCacheSize = 512
)

// TrackResolver turns a catalog track into a playable one.
type TrackResolver interface {
	Resolve(ctx context.Context, track domain.Track) (domain.Track, error)
}

// Resolver resolves tracks through the first backend that handles them and
// caches the result by track id for a fixed TTL. A cached URL is reused only
// after the prober confirms it is still alive. Failures are never cached.
//
// Thread-safety: the underlying LRU is safe for concurrent use.
type Resolver struct {
	logger   *slog.Logger
	backends []ports.AudioBackend
	prober   ports.URLProber
	cache    *expirable.LRU[string, domain.Track]
}

// NewResolver creates a resolver. A nil prober trusts every cached URL
// until it expires.
func NewResolver(
	logger *slog.Logger,
	ttl time.Duration,
	size int,
	prober ports.URLProber,
	backends ...ports.AudioBackend,
) *Resolver {
	if ttl <= 0 {
		ttl = DefaultResolveTTL
	}
	if size <= 0 {
		size = DefaultResolveCacheSize
	}

	return &Resolver{
		logger:   logger.With(slog.String("service", "resolver")),
		backends: backends,
		prober:   prober,
		cache:    expirable.NewLRU[string, domain.Track](size, nil, ttl),
	}
}

// Resolve returns a track with a playable StreamURL.
// Every failure is reported as a *domain.ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, track domain.Track) (domain.Track, error) {
	if track.ID == "" {
		return domain.Track{}, domain.NewResolutionError("", domain.ErrMissingTrackID)
	}

	if cached, ok := r.cache.Get(track.ID); ok {
		if r.prober == nil || r.prober.Alive(ctx, cached.StreamURL) {
			r.logger.Debug("cache hit", slog.String("track_id", track.ID))
			return cached, nil
		}
		r.logger.Debug("cached url is dead", slog.String("track_id", track.ID))
		r.cache.Remove(track.ID)
	}

	backend, ok := lo.Find(r.backends, func(b ports.AudioBackend) bool {
		return b.Handles(track)
	})
	if !ok {
		return domain.Track{}, domain.NewResolutionError(track.ID, domain.ErrNoBackend)
	}

	resolved, err := backend.ResolveAudio(ctx, track)
	if err != nil {
		r.logger.Warn("resolve failed", slog.String("track_id", track.ID), slog.Any("error", err))
		return domain.Track{}, domain.NewResolutionError(track.ID, err)
	}
	if resolved.StreamURL == "" {
		return domain.Track{}, domain.NewResolutionError(track.ID, domain.ErrMissingStreamURL)
	}
	resolved.ID = track.ID

	r.cache.Add(track.ID, resolved)
	return resolved, nil
}

// Invalidate drops the cached entry for id.
func (r *Resolver) Invalidate(id string) {
	r.cache.Remove(id)
}

// Purge drops every cached entry.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

// Len returns the number of cached entries.
func (r *Resolver) Len() int {
	return r.cache.Len()
}

var _ TrackResolver = (*Resolver)(nil)
