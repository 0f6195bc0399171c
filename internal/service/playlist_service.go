// Package service provides the playback core of tunesync and the services around it.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// PlaylistService manages stored playlists. When the playlist being edited
// is the one behind the playlist queue, the queue is kept in step through
// the Synchronizer.
type PlaylistService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PlaylistRepository
	store      *QueueStore
	player     *Synchronizer
	bus        ports.EventBus

	now func() time.Time
}

// NewPlaylistService creates a new playlist service.
func NewPlaylistService(
	logger *slog.Logger,
	repository ports.PlaylistRepository,
	store *QueueStore,
	player *Synchronizer,
	bus ports.EventBus,
) *PlaylistService {
	return &PlaylistService{
		logger:     logger.With(slog.String("service", "playlist")),
		repository: repository,
		store:      store,
		player:     player,
		bus:        bus,
		now:        time.Now,
	}
}

// Create stores a new empty playlist with id "<title>_<uuid>".
func (s *PlaylistService) Create(title string) (*domain.StoredPlaylist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.NewValidationError("title", title, "playlist title cannot be empty")
	}

	now := s.now()
	playlist := &domain.StoredPlaylist{
		ID:        title + "_" + uuid.NewString(),
		Title:     title,
		Tracks:    []domain.StoredTrack{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(playlist); err != nil {
		return nil, err
	}

	s.logger.Info("playlist created", slog.String("playlist_id", playlist.ID))
	return playlist, nil
}

// List returns every stored playlist in creation order.
func (s *PlaylistService) List() ([]*domain.StoredPlaylist, error) {
	return s.repository.LoadAll()
}

// Get returns one playlist.
func (s *PlaylistService) Get(id string) (*domain.StoredPlaylist, error) {
	return s.repository.Load(id)
}

// Rename changes the display title. The id is kept.
func (s *PlaylistService) Rename(id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.NewValidationError("title", title, "playlist title cannot be empty")
	}

	playlist, err := s.repository.Load(id)
	if err != nil {
		return err
	}
	playlist.Title = title
	playlist.UpdatedAt = s.now()
	return s.save(playlist)
}

// AddTrack appends track to the playlist. A track already stored (by id)
// returns domain.ErrDuplicateTrack.
func (s *PlaylistService) AddTrack(id string, track domain.Track) error {
	if track.ID == "" {
		return domain.ErrMissingTrackID
	}

	playlist, err := s.repository.Load(id)
	if err != nil {
		return err
	}
	exists := lo.ContainsBy(playlist.Tracks, func(t domain.StoredTrack) bool {
		return t.ID == track.ID
	})
	if exists {
		return domain.ErrDuplicateTrack
	}

	now := s.now()
	// Stream URLs expire, so only the identity and metadata are stored
	track.StreamURL = ""
	playlist.Tracks = append(playlist.Tracks, domain.StoredTrack{Track: track, AddedAt: now})
	playlist.UpdatedAt = now
	return s.save(playlist)
}

// RemoveTrack removes trackID from the playlist, and from the playlist
// queue when this playlist is loaded there.
func (s *PlaylistService) RemoveTrack(ctx context.Context, id, trackID string) error {
	playlist, err := s.repository.Load(id)
	if err != nil {
		return err
	}

	before := len(playlist.Tracks)
	playlist.Tracks = lo.Reject(playlist.Tracks, func(t domain.StoredTrack, _ int) bool {
		return t.ID == trackID
	})
	if len(playlist.Tracks) == before {
		return domain.ErrTrackNotFound
	}
	playlist.UpdatedAt = s.now()
	if err := s.save(playlist); err != nil {
		return err
	}

	if s.store.State().CurrentPlaylistID != id {
		return nil
	}
	return s.player.RemoveFromQueue(ctx, domain.SourcePlaylist, trackID)
}

// Delete removes the playlist. A playlist that is loaded in the playlist
// queue is stopped first.
func (s *PlaylistService) Delete(ctx context.Context, id string) error {
	if !s.repository.Exists(id) {
		return domain.ErrPlaylistNotFound
	}
	if err := s.player.StopPlaylist(ctx, id); err != nil {
		return err
	}
	if err := s.repository.Delete(id); err != nil {
		return domain.NewServiceError("PlaylistService", "Delete", "failed to delete playlist", err)
	}

	s.bus.Publish(domain.NewPlaylistDeletedEvent(id))
	s.logger.Info("playlist deleted", slog.String("playlist_id", id))
	return nil
}

// Play loads the playlist into the playlist queue and plays it from
// startID, or from the first track when startID is empty.
func (s *PlaylistService) Play(ctx context.Context, id, startID string) error {
	playlist, err := s.repository.Load(id)
	if err != nil {
		return err
	}
	if len(playlist.Tracks) == 0 {
		return domain.ErrQueueEmpty
	}
	return s.player.PlayTracks(ctx, domain.SourcePlaylist, playlist.PlainTracks(), startID, id)
}

func (s *PlaylistService) save(playlist *domain.StoredPlaylist) error {
	if err := s.repository.Save(playlist); err != nil {
		return domain.NewServiceError("PlaylistService", "Save", "failed to save playlist", err)
	}
	s.bus.Publish(domain.NewPlaylistUpdatedEvent(*playlist))
	return nil
}
