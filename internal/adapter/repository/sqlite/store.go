// Package sqlite provides repository implementations backed by an embedded
// SQLite database (modernc.org/sqlite, no CGO).
package sqlite

import (
	"database/sql"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/tejashwikalptaru/tunesync/internal/db"
)

// Store owns the database handle shared by the repositories.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	state    *StateRepository
	playlist *PlaylistRepository
	recent   *RecentSearchRepository
}

// Open opens the database at path and makes sure the schema exists.
// Use ":memory:" for a throwaway database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	conn, err := db.Open(path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}

	logger = logger.With(slog.String("repository", "sqlite"))
	logger.Debug("database opened", slog.String("path", path))

	return &Store{
		db:       conn,
		logger:   logger,
		state:    &StateRepository{db: conn},
		playlist: &PlaylistRepository{db: conn, logger: logger},
		recent:   &RecentSearchRepository{db: conn},
	}, nil
}

// States returns the playback state repository.
func (s *Store) States() *StateRepository { return s.state }

// Playlists returns the stored playlist repository.
func (s *Store) Playlists() *PlaylistRepository { return s.playlist }

// RecentSearches returns the recent search repository.
func (s *Store) RecentSearches() *RecentSearchRepository { return s.recent }

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close runs a final optimize pass and closes the database.
func (s *Store) Close() error {
	_, err := s.db.Exec(`PRAGMA optimize`)
	return multierr.Append(err, s.db.Close())
}
