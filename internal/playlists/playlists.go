// Package playlists manages named, ordered song collections and the
// reserved playback queue.
package playlists

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	dbutil "github.com/llehouerou/songbook/internal/db"
	"github.com/llehouerou/songbook/internal/store"
)

// Kind distinguishes the system queue from user playlists.
type Kind int

const (
	KindUser Kind = iota
	KindQueue
)

func (k Kind) String() string {
	if k == KindQueue {
		return "queue"
	}
	return "user"
}

// Playlist is playlist metadata, without its songs.
type Playlist struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	CoverArtURL sql.NullString `db:"cover_art_url"`
	CreatedAt   int64          `db:"created_at"`
	SongCount   int            `db:"song_count"`
}

// Kind reports whether p is the queue.
func (p Playlist) Kind() Kind {
	if p.ID == store.QueuePlaylistID {
		return KindQueue
	}
	return KindUser
}

// Playlists provides database operations for playlists.
type Playlists struct {
	db  *sqlx.DB
	st  *store.Store
	log *slog.Logger
}

func New(st *store.Store) *Playlists {
	return &Playlists{db: st.DB(), st: st, log: st.Logger("playlists")}
}

const playlistColumns = `
	p.id, p.name, p.description, p.cover_art_url, p.created_at,
	(SELECT COUNT(*) FROM playlist_songs ps WHERE ps.playlist_id = p.id) AS song_count`

// Create creates a playlist, or updates the description and cover of the
// playlist that already has this name. The id of an existing playlist is
// preserved.
func (p *Playlists) Create(name, description, coverArtURL string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("%w: empty playlist name", dbutil.ErrValidation)
	}
	if name == store.QueuePlaylistName {
		return 0, fmt.Errorf("%w: %q is reserved for the queue", dbutil.ErrProtected, name)
	}

	var id int64
	err := p.db.Get(&id, `
		INSERT INTO playlists (name, description, cover_art_url, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			cover_art_url = excluded.cover_art_url
		RETURNING id
	`, name, dbutil.NullString(description), dbutil.NullString(coverArtURL), p.st.Now())
	if err != nil {
		return 0, fmt.Errorf("create playlist %q: %w", name, err)
	}
	return id, nil
}

// Rename renames a user playlist. The queue cannot be renamed and no other
// playlist may take its name.
func (p *Playlists) Rename(id int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty playlist name", dbutil.ErrValidation)
	}
	if id == store.QueuePlaylistID || name == store.QueuePlaylistName {
		return fmt.Errorf("%w: the queue name is reserved", dbutil.ErrProtected)
	}

	res, err := p.db.Exec(`UPDATE playlists SET name = ? WHERE id = ?`, name, id)
	if dbutil.IsUniqueViolation(err) {
		return fmt.Errorf("%w: playlist %q already exists", dbutil.ErrConflict, name)
	}
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: playlist %d", dbutil.ErrNotFound, id)
	}
	return nil
}

// Delete deletes a playlist and its membership rows. Deleting the queue
// fails with ErrProtected; deleting an absent playlist is a no-op.
func (p *Playlists) Delete(id int64) error {
	if id == store.QueuePlaylistID {
		return fmt.Errorf("%w: the queue cannot be deleted", dbutil.ErrProtected)
	}
	_, err := p.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	return err
}

// Get returns a playlist by its ID, or ErrNotFound.
func (p *Playlists) Get(id int64) (*Playlist, error) {
	if id == store.QueuePlaylistID {
		if err := p.ensureQueue(); err != nil {
			return nil, err
		}
	}

	var pl Playlist
	err := p.db.Get(&pl, `SELECT`+playlistColumns+` FROM playlists p WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: playlist %d", dbutil.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

// GetByName returns a playlist by its exact name, or ErrNotFound.
func (p *Playlists) GetByName(name string) (*Playlist, error) {
	var pl Playlist
	err := p.db.Get(&pl, `SELECT`+playlistColumns+` FROM playlists p WHERE p.name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: playlist %q", dbutil.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &pl, nil
}

// List returns every playlist, the queue first, then by name.
func (p *Playlists) List() ([]Playlist, error) {
	if err := p.ensureQueue(); err != nil {
		return nil, err
	}

	var playlists []Playlist
	err := p.db.Select(&playlists, `
		SELECT`+playlistColumns+`
		FROM playlists p
		ORDER BY p.id != ?, p.name COLLATE NOCASE
	`, store.QueuePlaylistID)
	return playlists, err
}

// Count returns the number of songs in a playlist.
func (p *Playlists) Count(playlistID int64) (int, error) {
	var count int
	err := p.db.Get(&count, `SELECT COUNT(*) FROM playlist_songs WHERE playlist_id = ?`, playlistID)
	return count, err
}

// Contains reports whether a song is in a playlist.
func (p *Playlists) Contains(playlistID, songID int64) (bool, error) {
	var count int
	err := p.db.Get(&count, `
		SELECT COUNT(*) FROM playlist_songs WHERE playlist_id = ? AND song_id = ?
	`, playlistID, songID)
	return count > 0, err
}

func (p *Playlists) ensureQueue() error {
	return store.EnsureQueue(p.db, p.st.Now())
}
