package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	dbutil "github.com/llehouerou/songbook/internal/db"
)

// LatestVersion is the schema version this build writes.
const LatestVersion = 3

// Reserved queue playlist identity.
const (
	QueuePlaylistID   int64 = 1
	QueuePlaylistName       = "Now Playing"
)

// migration is one additive upgrade step. Every step must be safe to re-run.
type migration struct {
	version     int
	description string
	up          func(tx *sqlx.Tx, now int64) error
}

var migrations = []migration{
	{1, "library tables", migrateLibrary},
	{2, "playlists and queue", migratePlaylists},
	{3, "song albums and update timestamps", migrateSongAlbums},
}

// expectedTables lists every table VerifyIntegrity requires.
var expectedTables = []string{
	"songs",
	"artists",
	"genres",
	"albums",
	"song_artist",
	"song_genre",
	"artist_genre",
	"playlists",
	"playlist_songs",
}

func migrateLibrary(tx *sqlx.Tx, _ int64) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS songs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			file_path TEXT NOT NULL UNIQUE,
			duration INTEGER NOT NULL DEFAULT 0,
			track_number INTEGER,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS artists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS genres (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS albums (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
			year INTEGER,
			created_at INTEGER NOT NULL,
			UNIQUE(name, artist_id)
		);

		CREATE TABLE IF NOT EXISTS song_artist (
			song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
			artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
			PRIMARY KEY (song_id, artist_id)
		);

		CREATE TABLE IF NOT EXISTS song_genre (
			song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
			genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
			PRIMARY KEY (song_id, genre_id)
		);

		CREATE TABLE IF NOT EXISTS artist_genre (
			artist_id INTEGER NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
			genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
			PRIMARY KEY (artist_id, genre_id)
		);

		CREATE INDEX IF NOT EXISTS idx_song_artist_artist ON song_artist(artist_id);
		CREATE INDEX IF NOT EXISTS idx_song_genre_genre ON song_genre(genre_id);
		CREATE INDEX IF NOT EXISTS idx_artist_genre_genre ON artist_genre(genre_id);
		CREATE INDEX IF NOT EXISTS idx_albums_artist ON albums(artist_id);
	`)
	return err
}

func migratePlaylists(tx *sqlx.Tx, now int64) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT,
			cover_art_url TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_songs (
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (playlist_id, song_id)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_songs_position ON playlist_songs(playlist_id, position);
		CREATE INDEX IF NOT EXISTS idx_playlist_songs_song ON playlist_songs(song_id);
	`)
	if err != nil {
		return err
	}
	return EnsureQueue(tx, now)
}

func migrateSongAlbums(tx *sqlx.Tx, _ int64) error {
	if err := addColumnIfMissing(tx, "songs", "updated_at",
		`ALTER TABLE songs ADD COLUMN updated_at INTEGER NOT NULL DEFAULT 0`); err != nil {
		return err
	}
	if err := addColumnIfMissing(tx, "songs", "album_id",
		`ALTER TABLE songs ADD COLUMN album_id INTEGER REFERENCES albums(id) ON DELETE SET NULL`); err != nil {
		return err
	}
	_, err := tx.Exec(`
		UPDATE songs SET updated_at = created_at WHERE updated_at = 0;
		CREATE INDEX IF NOT EXISTS idx_songs_album ON songs(album_id);
	`)
	return err
}

func addColumnIfMissing(tx *sqlx.Tx, table, column, ddl string) error {
	var count int
	err := tx.Get(&count, `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column)
	if err != nil {
		return fmt.Errorf("inspect %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = tx.Exec(ddl)
	return err
}

// CurrentVersion returns the schema version recorded in the database header.
func (s *Store) CurrentVersion() (int, error) {
	var version int
	err := s.db.Get(&version, `PRAGMA user_version`)
	return version, err
}

// Upgrade applies every step with start < version <= to in one transaction,
// where start is the lower of from and the recorded version, and records to
// as the new version. The recorded version never moves backwards: a target
// below it fails with ErrDowngrade. Steps are idempotent, so re-running a
// range that was already applied is harmless.
func (s *Store) Upgrade(from, to int) error {
	if to < from {
		return fmt.Errorf("%w: from %d to %d", dbutil.ErrDowngrade, from, to)
	}
	if to > LatestVersion || from < 0 {
		return fmt.Errorf("%w: upgrade %d -> %d (latest %d)", dbutil.ErrUnknownVersion, from, to, LatestVersion)
	}

	now := s.Now()
	err := dbutil.WithTx(s.db, func(tx *sqlx.Tx) error {
		var current int
		if err := tx.Get(&current, `PRAGMA user_version`); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if to < current {
			return fmt.Errorf("%w: catalog is at version %d, target %d", dbutil.ErrDowngrade, current, to)
		}

		start := min(from, current)
		for _, m := range migrations {
			if m.version <= start || m.version > to {
				continue
			}
			if err := m.up(tx, now); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
			}
			s.log.Info("schema step applied", "version", m.version, "step", m.description)
		}
		// PRAGMA does not accept bound parameters; to is a validated int.
		_, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, to))
		return err
	})
	if err != nil {
		return fmt.Errorf("upgrade schema %d -> %d: %w", from, to, err)
	}
	return nil
}

// EnsureQueue seeds the queue playlist row. It ignores conflicts, so it can
// run on every open and every queue access. A row already holding the queue
// name under another id blocks the seed and is reported as corruption.
func EnsureQueue(q dbutil.Querier, now int64) error {
	_, err := q.Exec(`
		INSERT OR IGNORE INTO playlists (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`, QueuePlaylistID, QueuePlaylistName, "Live playback queue", now)
	if err != nil {
		return fmt.Errorf("seed queue playlist: %w", err)
	}

	var n int
	if err := sqlx.Get(q, &n, `SELECT COUNT(*) FROM playlists WHERE id = ?`, QueuePlaylistID); err != nil {
		return fmt.Errorf("check queue playlist: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: queue playlist %d is missing and %q is taken by another playlist",
			dbutil.ErrSchemaCorruption, QueuePlaylistID, QueuePlaylistName)
	}
	return nil
}

// CompactPositions renumbers a playlist's positions to 1..n, keeping the
// current order.
func CompactPositions(q dbutil.Querier, playlistID int64) error {
	var songIDs []int64
	err := sqlx.Select(q, &songIDs, `
		SELECT song_id FROM playlist_songs
		WHERE playlist_id = ?
		ORDER BY position, created_at, song_id
	`, playlistID)
	if err != nil {
		return err
	}

	for i, songID := range songIDs {
		if _, err := q.Exec(`
			UPDATE playlist_songs SET position = ?
			WHERE playlist_id = ? AND song_id = ? AND position != ?
		`, i+1, playlistID, songID, i+1); err != nil {
			return err
		}
	}
	return nil
}
