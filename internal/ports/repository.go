// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"github.com/tejashwikalptaru/tunesync/internal/domain"
)

// Persistence keys of the whitelisted top-level records.
const (
	KeyPlayMusic      = "playMusic"
	KeyPlaylist       = "playlist"
	KeyRecentSearches = "recentSearches"
)

// PersistKeys lists every key that may be persisted.
var PersistKeys = []string{KeyRecentSearches, KeyPlayMusic, KeyPlaylist}

// StateRepository handles the persistence of the playback state record.
//
// Thread-safety: Implementations must be thread-safe.
type StateRepository interface {
	// SaveState persists the whole record, replacing what was stored.
	SaveState(state *domain.PlaybackState) error

	// LoadState retrieves the stored record.
	// If nothing was saved, returns (nil, nil).
	LoadState() (*domain.PlaybackState, error)
}

// PlaylistRepository handles the persistence of stored playlists.
// Implementations can use files, databases, or in-memory storage.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// Save persists a playlist.
	// If a playlist with the same ID exists, it is replaced.
	Save(playlist *domain.StoredPlaylist) error

	// Load retrieves a playlist by ID.
	// If the playlist doesn't exist, returns (nil, domain.ErrPlaylistNotFound).
	Load(id string) (*domain.StoredPlaylist, error)

	// LoadAll retrieves all saved playlists in creation order.
	LoadAll() ([]*domain.StoredPlaylist, error)

	// Delete removes a playlist by ID.
	// If the playlist doesn't exist, this is a no-op (no error).
	Delete(id string) error

	// Exists checks if a playlist with the given ID exists.
	Exists(id string) bool
}

// RecentSearchRepository handles the persistence of recent search queries.
//
// Thread-safety: Implementations must be thread-safe.
type RecentSearchRepository interface {
	// SaveRecentSearches replaces the stored list (newest first).
	SaveRecentSearches(queries []string) error

	// LoadRecentSearches returns the stored list, empty when nothing was saved.
	LoadRecentSearches() ([]string, error)
}
