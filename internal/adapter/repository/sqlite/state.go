package sqlite

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/tejashwikalptaru/tunesync/internal/db"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
)

// StateRepository persists the playback state record across the
// playback_state, queues and queue_tracks tables.
type StateRepository struct {
	db *sql.DB
}

// LoadState reads the record. It returns (nil, nil) when nothing was saved.
func (r *StateRepository) LoadState() (*domain.PlaybackState, error) {
	var (
		trackID, streamURL, title, artist, artwork sql.NullString
		playlistID                                 sql.NullString
		isPlaying, barVisible                      bool
		positionMS                                 int64
		activeSource                               string
	)

	row := r.db.QueryRow(`
		SELECT current_track_id, current_stream_url, current_title, current_artist,
			current_artwork_url, is_playing, position_ms, active_source,
			current_playlist_id, bar_visible
		FROM playback_state WHERE id = 1
	`)
	err := row.Scan(&trackID, &streamURL, &title, &artist, &artwork,
		&isPlaying, &positionMS, &activeSource, &playlistID, &barVisible)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewRepositoryError("load", "state", "failed to read playback state", err)
	}

	state := domain.NewPlaybackState()
	state.IsPlaying = isPlaying
	state.Position = time.Duration(positionMS) * time.Millisecond
	state.ActiveSource = domain.Source(activeSource)
	state.CurrentPlaylistID = dbutil.NullStringValue(playlistID)
	state.BarVisible = barVisible
	if trackID.Valid {
		state.CurrentMusic = &domain.Track{
			ID:         trackID.String,
			StreamURL:  dbutil.NullStringValue(streamURL),
			Title:      dbutil.NullStringValue(title),
			Artist:     dbutil.NullStringValue(artist),
			ArtworkURL: dbutil.NullStringValue(artwork),
		}
	}

	if err := r.loadQueues(state); err != nil {
		return nil, domain.NewRepositoryError("load", "state", "failed to read queues", err)
	}
	return state, nil
}

func (r *StateRepository) loadQueues(state *domain.PlaybackState) error {
	rows, err := r.db.Query(`SELECT source, current_index FROM queues`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var index int
		if err := rows.Scan(&source, &index); err != nil {
			return err
		}
		state.Queue(domain.Source(source)).Index = index
	}
	if err := rows.Err(); err != nil {
		return err
	}

	trackRows, err := r.db.Query(`
		SELECT source, track_id, stream_url, title, artist, artwork_url
		FROM queue_tracks
		ORDER BY source, position
	`)
	if err != nil {
		return err
	}
	defer trackRows.Close()

	for trackRows.Next() {
		var source string
		var t domain.Track
		var streamURL, artist, artwork sql.NullString
		if err := trackRows.Scan(&source, &t.ID, &streamURL, &t.Title, &artist, &artwork); err != nil {
			return err
		}
		t.StreamURL = dbutil.NullStringValue(streamURL)
		t.Artist = dbutil.NullStringValue(artist)
		t.ArtworkURL = dbutil.NullStringValue(artwork)

		q := state.Queue(domain.Source(source))
		q.Tracks = append(q.Tracks, t)
	}
	return trackRows.Err()
}

// SaveState replaces the stored record in one transaction.
func (r *StateRepository) SaveState(state *domain.PlaybackState) error {
	err := dbutil.WithTx(r.db, func(tx *sql.Tx) error {
		var current domain.Track
		if state.CurrentMusic != nil {
			current = *state.CurrentMusic
		}

		_, err := tx.Exec(`
			INSERT INTO playback_state (id, current_track_id, current_stream_url, current_title,
				current_artist, current_artwork_url, is_playing, position_ms, active_source,
				current_playlist_id, bar_visible)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_track_id = excluded.current_track_id,
				current_stream_url = excluded.current_stream_url,
				current_title = excluded.current_title,
				current_artist = excluded.current_artist,
				current_artwork_url = excluded.current_artwork_url,
				is_playing = excluded.is_playing,
				position_ms = excluded.position_ms,
				active_source = excluded.active_source,
				current_playlist_id = excluded.current_playlist_id,
				bar_visible = excluded.bar_visible
		`,
			dbutil.NullString(current.ID),
			dbutil.NullString(current.StreamURL),
			dbutil.NullString(current.Title),
			dbutil.NullString(current.Artist),
			dbutil.NullString(current.ArtworkURL),
			state.IsPlaying,
			state.Position.Milliseconds(),
			string(state.ActiveSource),
			dbutil.NullString(state.CurrentPlaylistID),
			state.BarVisible,
		)
		if err != nil {
			return err
		}

		// Clear existing queues
		if _, err := tx.Exec(`DELETE FROM queue_tracks`); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM queues`); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO queue_tracks (source, position, track_id, stream_url, title, artist, artwork_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, src := range domain.Sources {
			q := state.Queues[src]
			if q == nil {
				q = domain.NewQueue()
			}
			if _, err := tx.Exec(`INSERT INTO queues (source, current_index) VALUES (?, ?)`, string(src), q.Index); err != nil {
				return err
			}
			for i, t := range q.Tracks {
				_, err := stmt.Exec(string(src), i, t.ID,
					dbutil.NullString(t.StreamURL), t.Title,
					dbutil.NullString(t.Artist), dbutil.NullString(t.ArtworkURL))
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return domain.NewRepositoryError("save", "state", "failed to write playback state", err)
	}
	return nil
}

// Verify interface implementation
var _ ports.StateRepository = (*StateRepository)(nil)
