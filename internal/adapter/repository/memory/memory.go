// Package memory provides volatile repository implementations.
// Records kept here live for the life of the process only; the application
// uses them for every key left out of the persistence whitelist.
package memory

import (
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// StateRepository keeps the playback state record in memory.
type StateRepository struct {
	mu    sync.RWMutex
	state *domain.PlaybackState
}

// NewStateRepository creates an empty state repository.
func NewStateRepository() *StateRepository {
	return &StateRepository{}
}

// SaveState stores a copy of the record.
func (r *StateRepository) SaveState(state *domain.PlaybackState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = state.Clone()
	return nil
}

// LoadState returns a copy of the stored record, or nil.
func (r *StateRepository) LoadState() (*domain.PlaybackState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state == nil {
		return nil, nil
	}
	return r.state.Clone(), nil
}

// PlaylistRepository keeps stored playlists in memory.
type PlaylistRepository struct {
	mu        sync.RWMutex
	order     []string
	playlists map[string]*domain.StoredPlaylist
}

// NewPlaylistRepository creates an empty playlist repository.
func NewPlaylistRepository() *PlaylistRepository {
	return &PlaylistRepository{
		playlists: make(map[string]*domain.StoredPlaylist),
	}
}

func clonePlaylist(p *domain.StoredPlaylist) *domain.StoredPlaylist {
	out := *p
	out.Tracks = slices.Clone(p.Tracks)
	return &out
}

// Save stores a copy of the playlist.
func (r *PlaylistRepository) Save(playlist *domain.StoredPlaylist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.playlists[playlist.ID]; !ok {
		r.order = append(r.order, playlist.ID)
	}
	r.playlists[playlist.ID] = clonePlaylist(playlist)
	return nil
}

// Load returns a copy of the playlist.
func (r *PlaylistRepository) Load(id string) (*domain.StoredPlaylist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.playlists[id]
	if !ok {
		return nil, domain.ErrPlaylistNotFound
	}
	return clonePlaylist(p), nil
}

// LoadAll returns copies of every playlist in creation order.
func (r *PlaylistRepository) LoadAll() ([]*domain.StoredPlaylist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(id string, _ int) *domain.StoredPlaylist {
		return clonePlaylist(r.playlists[id])
	}), nil
}

// Delete removes a playlist. Missing ids are ignored.
func (r *PlaylistRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.playlists, id)
	r.order = lo.Without(r.order, id)
	return nil
}

// Exists reports whether the playlist is stored.
func (r *PlaylistRepository) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.playlists[id]
	return ok
}

// RecentSearchRepository keeps recent queries in memory.
type RecentSearchRepository struct {
	mu      sync.RWMutex
	queries []string
}

// NewRecentSearchRepository creates an empty recent search repository.
func NewRecentSearchRepository() *RecentSearchRepository {
	return &RecentSearchRepository{}
}

// SaveRecentSearches replaces the stored list.
func (r *RecentSearchRepository) SaveRecentSearches(queries []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queries = slices.Clone(queries)
	return nil
}

// LoadRecentSearches returns a copy of the stored list.
func (r *RecentSearchRepository) LoadRecentSearches() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.queries == nil {
		return []string{}, nil
	}
	return slices.Clone(r.queries), nil
}

// Verify interface implementation
var (
	_ ports.StateRepository        = (*StateRepository)(nil)
	_ ports.PlaylistRepository     = (*PlaylistRepository)(nil)
	_ ports.RecentSearchRepository = (*RecentSearchRepository)(nil)
)
