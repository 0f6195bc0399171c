package sqlite

import "database/sql"

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS playback_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_track_id TEXT,
			current_stream_url TEXT,
			current_title TEXT,
			current_artist TEXT,
			current_artwork_url TEXT,
			is_playing INTEGER NOT NULL DEFAULT 0,
			position_ms INTEGER NOT NULL DEFAULT 0,
			active_source TEXT NOT NULL DEFAULT 'normal',
			current_playlist_id TEXT,
			bar_visible INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS queues (
			source TEXT PRIMARY KEY,
			current_index INTEGER NOT NULL DEFAULT -1
		);

		CREATE TABLE IF NOT EXISTS queue_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			stream_url TEXT,
			title TEXT NOT NULL,
			artist TEXT,
			artwork_url TEXT,
			UNIQUE(source, position)
		);

		CREATE INDEX IF NOT EXISTS idx_queue_tracks_source ON queue_tracks(source, position);

		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id TEXT NOT NULL REFERENCES playlists(playlist_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			stream_url TEXT,
			title TEXT NOT NULL,
			artist TEXT,
			artwork_url TEXT,
			added_at INTEGER NOT NULL,
			UNIQUE(playlist_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_playlist ON playlist_tracks(playlist_id, position);

		CREATE TABLE IF NOT EXISTS recent_searches (
			position INTEGER PRIMARY KEY,
			query TEXT NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
