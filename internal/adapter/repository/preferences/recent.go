package preferences

import (
	"sync"

	"fyne.io/fyne/v2"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// RecentSearchRepository implements ports.RecentSearchRepository using
// Fyne's native string list preference.
type RecentSearchRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewRecentSearchRepository creates a new recent search repository.
func NewRecentSearchRepository(prefs fyne.Preferences) *RecentSearchRepository {
	return &RecentSearchRepository{prefs: prefs}
}

// SaveRecentSearches replaces the stored list.
func (r *RecentSearchRepository) SaveRecentSearches(queries []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetStringList(ports.KeyRecentSearches, queries)
	return nil
}

// LoadRecentSearches returns the stored list.
func (r *RecentSearchRepository) LoadRecentSearches() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.StringListWithFallback(ports.KeyRecentSearches, []string{}), nil
}

// Verify interface implementation
var _ ports.RecentSearchRepository = (*RecentSearchRepository)(nil)
