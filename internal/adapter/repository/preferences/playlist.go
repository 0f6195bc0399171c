package preferences

import (
	"encoding/json"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/samber/lo"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// idsKey holds the ordered list of playlist IDs.
const idsKey = ports.KeyPlaylist + "._ids"

// PlaylistRepository implements ports.PlaylistRepository using Fyne preferences.
// Playlists are stored as JSON in preferences with keys like "playlist.<id>".
//
// Thread-safe: All operations protected by sync.RWMutex.
type PlaylistRepository struct {
	prefs  fyne.Preferences
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewPlaylistRepository creates a new playlist repository.
func NewPlaylistRepository(prefs fyne.Preferences, logger *slog.Logger) *PlaylistRepository {
	return &PlaylistRepository{
		prefs:  prefs,
		logger: logger,
	}
}

func playlistKey(id string) string {
	return ports.KeyPlaylist + "." + id
}

// Save persists a playlist.
func (r *PlaylistRepository) Save(playlist *domain.StoredPlaylist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(playlist)
	if err != nil {
		return domain.NewRepositoryError("save", "playlist", "failed to marshal playlist", err)
	}
	r.prefs.SetString(playlistKey(playlist.ID), string(data))

	ids, err := r.loadPlaylistIDs()
	if err != nil {
		ids = []string{}
	}
	if !lo.Contains(ids, playlist.ID) {
		return r.savePlaylistIDs(append(ids, playlist.ID))
	}
	return nil
}

// Load retrieves a playlist by ID.
func (r *PlaylistRepository) Load(id string) (*domain.StoredPlaylist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(playlistKey(id))
	if data == "" {
		return nil, domain.ErrPlaylistNotFound
	}

	var playlist domain.StoredPlaylist
	if err := json.Unmarshal([]byte(data), &playlist); err != nil {
		return nil, domain.NewRepositoryError("load", "playlist", "failed to unmarshal playlist", err)
	}
	return &playlist, nil
}

// LoadAll retrieves all saved playlists in creation order.
func (r *PlaylistRepository) LoadAll() ([]*domain.StoredPlaylist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, err := r.loadPlaylistIDs()
	if err != nil {
		return nil, err
	}

	playlists := make([]*domain.StoredPlaylist, 0, len(ids))
	for _, id := range ids {
		data := r.prefs.String(playlistKey(id))
		if data == "" {
			r.logger.Warn("playlist data missing", slog.String("id", id))
			continue
		}

		var playlist domain.StoredPlaylist
		if err := json.Unmarshal([]byte(data), &playlist); err != nil {
			r.logger.Warn("playlist corrupted", slog.String("id", id), slog.Any("error", err))
			continue
		}
		playlists = append(playlists, &playlist)
	}
	return playlists, nil
}

// Delete removes a playlist by ID.
func (r *PlaylistRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(playlistKey(id))

	ids, err := r.loadPlaylistIDs()
	if err != nil {
		ids = []string{}
	}
	return r.savePlaylistIDs(lo.Without(ids, id))
}

// Exists checks if a playlist with the given ID exists.
func (r *PlaylistRepository) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.String(playlistKey(id)) != ""
}

// loadPlaylistIDs loads the list of all playlist IDs.
// Must be called with lock held.
func (r *PlaylistRepository) loadPlaylistIDs() ([]string, error) {
	data := r.prefs.String(idsKey)
	if data == "" {
		return []string{}, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, domain.NewRepositoryError("load", "playlist", "failed to unmarshal IDs", err)
	}
	return ids, nil
}

// savePlaylistIDs saves the list of all playlist IDs.
// Must be called with lock held.
func (r *PlaylistRepository) savePlaylistIDs(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return domain.NewRepositoryError("save", "playlist", "failed to marshal IDs", err)
	}

	r.prefs.SetString(idsKey, string(data))
	return nil
}

// Verify interface implementation
var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)
