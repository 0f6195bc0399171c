// Package lastfm reports plays to Last.fm as a play-log sink.
package lastfm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shkh/lastfm-go/lastfm"
	"go.uber.org/multierr"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// Config holds the Last.fm credentials.
type Config struct {
	APIKey     string
	APISecret  string
	SessionKey string
}

// Sink sends now-playing updates and scrobbles for every logged play.
type Sink struct {
	nowPlaying    func(lastfm.P) error
	scrobble      func(lastfm.P) error
	authenticated bool
	now           func() time.Time
	logger        *slog.Logger
}

// New creates a sink backed by the Last.fm API.
func New(cfg Config, logger *slog.Logger) *Sink {
	api := lastfm.New(cfg.APIKey, cfg.APISecret)
	if cfg.SessionKey != "" {
		api.SetSession(cfg.SessionKey)
	}

	return &Sink{
		nowPlaying: func(p lastfm.P) error {
			_, err := api.Track.UpdateNowPlaying(p)
			return err
		},
		scrobble: func(p lastfm.P) error {
			_, err := api.Track.Scrobble(p)
			return err
		},
		authenticated: cfg.SessionKey != "",
		now:           time.Now,
		logger:        logger.With(slog.String("adapter", "lastfm")),
	}
}

// Name identifies the sink in logs.
func (s *Sink) Name() string {
	return "lastfm"
}

// LogPlay marks the track as now playing and scrobbles it.
func (s *Sink) LogPlay(_ context.Context, track domain.Track) error {
	if !s.authenticated {
		return domain.ErrNotAuthenticated
	}

	params := lastfm.P{
		"artist": track.Artist,
		"track":  track.Title,
	}

	var errs error
	if err := s.nowPlaying(params); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("update now playing: %w", err))
	}

	params["timestamp"] = s.now().Unix()
	if err := s.scrobble(params); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("scrobble: %w", err))
	}

	if errs == nil {
		s.logger.Debug("scrobbled", slog.String("track", track.Title))
	}
	return errs
}

// Verify interface implementation
var _ ports.PlayLogSink = (*Sink)(nil)
