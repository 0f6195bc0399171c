package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// ErrScanCancelled is returned when a running scan is cancelled.
var ErrScanCancelled = errors.New("scan cancelled")

// LibraryService scans local folders for audio files and turns them into
// local tracks that the Synchronizer can play.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	metadata ports.AudioBackend

	// State
	scanning      bool
	cancelScan    context.CancelFunc
	supportedExts []string

	// Concurrency control
	mu sync.RWMutex
}

// NewLibraryService creates a new library service. metadata reads the
// tags of one local track, usually the local resolution backend.
func NewLibraryService(logger *slog.Logger, metadata ports.AudioBackend) *LibraryService {
	return &LibraryService{
		logger:   logger.With(slog.String("service", "library")),
		metadata: metadata,
		supportedExts: []string{
			// Tagged formats
			".mp3",
			".m4a", ".m4b", ".m4p", ".alac",
			".flac",
			".ogg",
			".dsf",
			// Played untagged
			".wav", ".aac",
		},
	}
}

// ScanFolder walks folderPath recursively and returns one track per
// supported file, sorted by path. Files whose tags cannot be read are skipped.
func (s *LibraryService) ScanFolder(ctx context.Context, folderPath string) ([]domain.Track, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, domain.NewServiceError("LibraryService", "ScanFolder", "scan already in progress", nil)
	}
	s.scanning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancelScan = cancel
	s.mu.Unlock()

	// Ensure cleanup
	defer func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}()

	files, err := s.collectAudioFiles(ctx, folderPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ErrScanCancelled
		}
		return nil, err
	}

	tracks := make([]domain.Track, 0, len(files))
	for _, path := range files {
		if ctx.Err() != nil {
			return tracks, ErrScanCancelled
		}

		track, err := s.readTrack(ctx, path)
		if err != nil {
			s.logger.Debug("skipping unreadable file", slog.String("path", path), slog.Any("error", err))
			continue
		}
		tracks = append(tracks, track)
	}

	s.logger.Info("scan completed",
		slog.String("folder", folderPath),
		slog.Int("files", len(files)),
		slog.Int("tracks", len(tracks)))
	return tracks, nil
}

// CancelScan cancels the currently running scan operation.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}
	if s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// IsFormatSupported checks if a file format is supported.
func (s *LibraryService) IsFormatSupported(filePath string) bool {
	return slices.Contains(s.supportedExts, strings.ToLower(filepath.Ext(filePath)))
}

// readTrack returns the metadata of one file without a stream URL, since
// the URL is filled in at play time.
func (s *LibraryService) readTrack(ctx context.Context, path string) (domain.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Track{}, err
	}
	track, err := s.metadata.ResolveAudio(ctx, domain.Track{ID: domain.LocalPrefix + abs})
	if err != nil {
		return domain.Track{}, err
	}
	track.StreamURL = ""
	return track, nil
}

// collectAudioFiles recursively collects all audio files in a directory.
func (s *LibraryService) collectAudioFiles(ctx context.Context, folderPath string) ([]string, error) {
	files := make([]string, 0)

	err := filepath.WalkDir(folderPath, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return context.Canceled
		}
		if err != nil {
			if path == folderPath {
				return err
			}
			// Skip entries we can't access
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}
