// Package local resolves tracks that live on the local filesystem.
// Track ids carry the "local:" prefix followed by the file path.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// Prefix marks local track ids.
const Prefix = domain.LocalPrefix

const unknownArtist = "Unknown Artist"

// Backend reads tags from local audio files.
type Backend struct {
	logger *slog.Logger
}

// NewBackend creates a local file backend.
func NewBackend(logger *slog.Logger) *Backend {
	return &Backend{logger: logger.With(slog.String("adapter", "local"))}
}

// TrackFromPath builds an unresolved track for a file.
func TrackFromPath(path string) (domain.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Track{}, err
	}
	return domain.Track{ID: Prefix + abs, Title: titleFromName(abs)}, nil
}

// Handles reports whether the track id names a local file.
func (b *Backend) Handles(track domain.Track) bool {
	return strings.HasPrefix(track.ID, Prefix)
}

// ResolveAudio returns a file:// URL with metadata from the file's tags.
func (b *Backend) ResolveAudio(_ context.Context, track domain.Track) (domain.Track, error) {
	path := strings.TrimPrefix(track.ID, Prefix)
	info, err := os.Stat(path)
	if err != nil {
		return domain.Track{}, fmt.Errorf("%w: %s", domain.ErrTrackNotFound, path)
	}
	if info.IsDir() {
		return domain.Track{}, fmt.Errorf("%w: %s is a directory", domain.ErrTrackNotFound, path)
	}

	resolved := domain.Track{
		ID:         track.ID,
		StreamURL:  (&url.URL{Scheme: "file", Path: path}).String(),
		Title:      titleFromName(path),
		Artist:     unknownArtist,
		ArtworkURL: track.ArtworkURL,
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.Track{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		// Untagged files keep the file name
		b.logger.Debug("no tags", slog.String("path", path), slog.Any("error", err))
		return resolved, nil
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		resolved.Title = title
	}
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		resolved.Artist = artist
	}
	return resolved, nil
}

func titleFromName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Verify interface implementation
var _ ports.AudioBackend = (*Backend)(nil)
