// Package preferences provides repository implementations backed by Fyne preferences.
//
// Fyne preferences automatically use OS-specific app data directories:
// - macOS: ~/Library/Preferences/<app id>.plist
// - Linux: ~/.config/fyne/<app id>/
// - Windows: %APPDATA%\fyne\<app id>\
//
// Each record is stored as JSON under one of the whitelisted keys.
package preferences

import (
	"encoding/json"
	"sync"

	"fyne.io/fyne/v2"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// StateRepository implements ports.StateRepository using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type StateRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewStateRepository creates a new state repository.
// The preferences parameter should be obtained from fyne.CurrentApp().Preferences().
func NewStateRepository(prefs fyne.Preferences) *StateRepository {
	return &StateRepository{
		prefs: prefs,
	}
}

// SaveState persists the playback state record.
func (r *StateRepository) SaveState(state *domain.PlaybackState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return domain.NewRepositoryError("save", "state", "failed to marshal state", err)
	}

	r.prefs.SetString(ports.KeyPlayMusic, string(data))
	return nil
}

// LoadState retrieves the playback state record.
func (r *StateRepository) LoadState() (*domain.PlaybackState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(ports.KeyPlayMusic)
	if data == "" {
		return nil, nil
	}

	state := domain.NewPlaybackState()
	if err := json.Unmarshal([]byte(data), state); err != nil {
		return nil, domain.NewRepositoryError("load", "state", "failed to unmarshal state", err)
	}

	// Older records may lack one of the queues
	for _, src := range domain.Sources {
		state.Queue(src)
	}
	return state, nil
}

// Clear removes the saved record.
func (r *StateRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(ports.KeyPlayMusic)
}

// Verify interface implementation
var _ ports.StateRepository = (*StateRepository)(nil)
