package sqlite

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	dbutil "github.com/tejashwikalptaru/tunesync/internal/db"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// PlaylistRepository persists stored playlists in the playlists and
// playlist_tracks tables. Creation order follows the playlists row id.
type PlaylistRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Save inserts or replaces a playlist together with its tracks.
func (r *PlaylistRepository) Save(playlist *domain.StoredPlaylist) error {
	err := dbutil.WithTx(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO playlists (playlist_id, title, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(playlist_id) DO UPDATE SET
				title = excluded.title,
				updated_at = excluded.updated_at
		`, playlist.ID, playlist.Title, playlist.CreatedAt.Unix(), playlist.UpdatedAt.Unix())
		if err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlist.ID); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO playlist_tracks (playlist_id, position, track_id, stream_url, title, artist, artwork_url, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range playlist.Tracks {
			_, err := stmt.Exec(playlist.ID, i, t.ID,
				dbutil.NullString(t.StreamURL), t.Title,
				dbutil.NullString(t.Artist), dbutil.NullString(t.ArtworkURL),
				t.AddedAt.Unix())
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewRepositoryError("save", "playlist", "failed to write playlist", err)
	}
	return nil
}

// Load retrieves a playlist by ID.
func (r *PlaylistRepository) Load(id string) (*domain.StoredPlaylist, error) {
	var p domain.StoredPlaylist
	var created, updated int64

	row := r.db.QueryRow(`
		SELECT playlist_id, title, created_at, updated_at
		FROM playlists WHERE playlist_id = ?
	`, id)
	err := row.Scan(&p.ID, &p.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, domain.NewRepositoryError("load", "playlist", "failed to read playlist", err)
	}
	p.CreatedAt = time.Unix(created, 0)
	p.UpdatedAt = time.Unix(updated, 0)

	tracks, err := r.loadTracks(id)
	if err != nil {
		return nil, domain.NewRepositoryError("load", "playlist", "failed to read playlist tracks", err)
	}
	p.Tracks = tracks
	return &p, nil
}

func (r *PlaylistRepository) loadTracks(id string) ([]domain.StoredTrack, error) {
	rows, err := r.db.Query(`
		SELECT track_id, stream_url, title, artist, artwork_url, added_at
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []domain.StoredTrack{}
	for rows.Next() {
		var t domain.StoredTrack
		var streamURL, artist, artwork sql.NullString
		var addedAt int64
		if err := rows.Scan(&t.ID, &streamURL, &t.Title, &artist, &artwork, &addedAt); err != nil {
			return nil, err
		}
		t.StreamURL = dbutil.NullStringValue(streamURL)
		t.Artist = dbutil.NullStringValue(artist)
		t.ArtworkURL = dbutil.NullStringValue(artwork)
		t.AddedAt = time.Unix(addedAt, 0)
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// LoadAll retrieves all playlists in creation order.
func (r *PlaylistRepository) LoadAll() ([]*domain.StoredPlaylist, error) {
	rows, err := r.db.Query(`SELECT playlist_id FROM playlists ORDER BY id`)
	if err != nil {
		return nil, domain.NewRepositoryError("load", "playlist", "failed to list playlists", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, domain.NewRepositoryError("load", "playlist", "failed to list playlists", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	// The id cursor is closed before loading so a single-connection pool is not starved
	playlists := make([]*domain.StoredPlaylist, 0, len(ids))
	for _, id := range ids {
		p, err := r.Load(id)
		if err != nil {
			r.logger.Warn("playlist unreadable", slog.String("id", id), slog.Any("error", err))
			continue
		}
		playlists = append(playlists, p)
	}
	return playlists, nil
}

// Delete removes a playlist and its tracks.
func (r *PlaylistRepository) Delete(id string) error {
	err := dbutil.WithTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM playlists WHERE playlist_id = ?`, id)
		return err
	})
	if err != nil {
		return domain.NewRepositoryError("delete", "playlist", "failed to delete playlist", err)
	}
	return nil
}

// Exists checks if a playlist with the given ID exists.
func (r *PlaylistRepository) Exists(id string) bool {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM playlists WHERE playlist_id = ?`, id).Scan(&n)
	return err == nil && n > 0
}

// Verify interface implementation
var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)
