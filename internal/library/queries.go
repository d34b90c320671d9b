package library

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	dbutil "github.com/llehouerou/songbook/internal/db"
)

const songColumns = `
	s.id, s.title, s.file_path, s.duration, s.track_number, s.created_at, s.updated_at, s.album_id,
	(SELECT a.name FROM song_artist sa JOIN artists a ON a.id = sa.artist_id
	 WHERE sa.song_id = s.id ORDER BY a.id LIMIT 1) AS artist,
	(SELECT json_group_array(name) FROM (
		SELECT a.name FROM song_artist sa JOIN artists a ON a.id = sa.artist_id
		WHERE sa.song_id = s.id ORDER BY a.id
	)) AS artists,
	al.name AS album`

// SongSelect returns the flattened song projection over songs s and albums
// al. extra is appended to the column list, so callers joining more tables
// can read additional columns into a struct embedding SongRow.
func SongSelect(extra string) string {
	return `SELECT` + songColumns + extra + `
	FROM songs s
	LEFT JOIN albums al ON al.id = s.album_id`
}

// SongRow is the scan target of SongSelect.
type SongRow struct {
	ID          int64          `db:"id"`
	Title       string         `db:"title"`
	FilePath    string         `db:"file_path"`
	Duration    int64          `db:"duration"`
	TrackNumber sql.NullInt64  `db:"track_number"`
	CreatedAt   int64          `db:"created_at"`
	UpdatedAt   int64          `db:"updated_at"`
	AlbumID     sql.NullInt64  `db:"album_id"`
	Artist      sql.NullString `db:"artist"`
	ArtistsJSON sql.NullString `db:"artists"`
	Album       sql.NullString `db:"album"`
}

// Song converts the row into a Song.
func (r SongRow) Song() (Song, error) {
	s := Song{
		ID:          r.ID,
		Title:       r.Title,
		FilePath:    r.FilePath,
		Duration:    r.Duration,
		TrackNumber: int(dbutil.NullInt64Value(r.TrackNumber)),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		AlbumID:     dbutil.NullInt64ToPtr(r.AlbumID),
		Artist:      dbutil.NullStringValue(r.Artist),
		Album:       dbutil.NullStringValue(r.Album),
	}
	if raw := dbutil.NullStringValue(r.ArtistsJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.Artists); err != nil {
			return Song{}, fmt.Errorf("decode artists of song %d: %w", r.ID, err)
		}
	}
	return s, nil
}

// SelectSongs runs a SongSelect based query and converts every row.
func SelectSongs(q dbutil.Querier, query string, args ...any) ([]Song, error) {
	var rows []SongRow
	if err := sqlx.Select(q, &rows, query, args...); err != nil {
		return nil, err
	}

	songs := make([]Song, 0, len(rows))
	for _, r := range rows {
		s, err := r.Song()
		if err != nil {
			return nil, err
		}
		songs = append(songs, s)
	}
	return songs, nil
}

func (l *Library) selectOne(where string, args ...any) (*Song, error) {
	songs, err := SelectSongs(l.db, SongSelect("")+` WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	if len(songs) == 0 {
		return nil, dbutil.ErrNotFound
	}
	return &songs[0], nil
}

// Song returns a song by id, or ErrNotFound.
func (l *Library) Song(id int64) (*Song, error) {
	return l.selectOne(`s.id = ?`, id)
}

// SongByPath returns a song by file path, or ErrNotFound.
func (l *Library) SongByPath(path string) (*Song, error) {
	return l.selectOne(`s.file_path = ?`, path)
}

// Songs returns the whole catalog in insertion order.
func (l *Library) Songs() ([]Song, error) {
	return SelectSongs(l.db, SongSelect("")+` ORDER BY s.id`)
}

// SongIDByPath returns the id of the song at path, or ErrNotFound.
func (l *Library) SongIDByPath(path string) (int64, error) {
	return songIDByPath(l.db, path)
}

func songIDByPath(q dbutil.Querier, path string) (int64, error) {
	var id int64
	err := sqlx.Get(q, &id, `SELECT id FROM songs WHERE file_path = ?`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, dbutil.ErrNotFound
	}
	return id, err
}

func (l *Library) SongCount() (int, error) {
	var count int
	err := l.db.Get(&count, `SELECT COUNT(*) FROM songs`)
	return count, err
}
