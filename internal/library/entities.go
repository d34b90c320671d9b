package library

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	dbutil "github.com/llehouerou/songbook/internal/db"
)

// getOrCreateNamed inserts first and re-reads on conflict, so two writers
// racing on the same name still end up with a single row.
func getOrCreateNamed(q dbutil.Querier, table, kind, name string, now int64) (int64, error) {
	if err := validateName(kind, name); err != nil {
		return 0, err
	}

	_, err := q.Exec(`INSERT INTO `+table+` (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, now)
	if err != nil {
		return 0, fmt.Errorf("insert %s %q: %w", kind, name, err)
	}

	var id int64
	if err := sqlx.Get(q, &id, `SELECT id FROM `+table+` WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("lookup %s %q: %w", kind, name, err)
	}
	return id, nil
}

func getOrCreateAlbum(q dbutil.Querier, name string, artistID, now int64) (int64, error) {
	if err := validateName("album", name); err != nil {
		return 0, err
	}

	_, err := q.Exec(`
		INSERT INTO albums (name, artist_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name, artist_id) DO NOTHING
	`, name, artistID, now)
	if err != nil {
		return 0, fmt.Errorf("insert album %q: %w", name, err)
	}

	var id int64
	err = sqlx.Get(q, &id, `SELECT id FROM albums WHERE name = ? AND artist_id = ?`, name, artistID)
	if err != nil {
		return 0, fmt.Errorf("lookup album %q: %w", name, err)
	}
	return id, nil
}

// GetOrCreateArtist returns the id of the artist with exactly this name,
// creating it when absent.
func (l *Library) GetOrCreateArtist(name string) (int64, error) {
	return getOrCreateNamed(l.db, "artists", "artist", name, l.st.Now())
}

// GetOrCreateGenre returns the id of the genre with exactly this name,
// creating it when absent.
func (l *Library) GetOrCreateGenre(name string) (int64, error) {
	return getOrCreateNamed(l.db, "genres", "genre", name, l.st.Now())
}

// GetOrCreateAlbum returns the id of the album owned by artistID.
func (l *Library) GetOrCreateAlbum(name string, artistID int64) (int64, error) {
	return getOrCreateAlbum(l.db, name, artistID, l.st.Now())
}

func (t *Tx) GetOrCreateArtist(name string) (int64, error) {
	return getOrCreateNamed(t.tx, "artists", "artist", name, t.now)
}

func (t *Tx) GetOrCreateGenre(name string) (int64, error) {
	return getOrCreateNamed(t.tx, "genres", "genre", name, t.now)
}

func (t *Tx) GetOrCreateAlbum(name string, artistID int64) (int64, error) {
	return getOrCreateAlbum(t.tx, name, artistID, t.now)
}

// LinkArtist associates a song with an artist. Existing links are kept.
func (t *Tx) LinkArtist(songID, artistID int64) error {
	_, err := t.tx.Exec(`INSERT OR IGNORE INTO song_artist (song_id, artist_id) VALUES (?, ?)`,
		songID, artistID)
	return err
}

// LinkGenre associates a song with a genre. Existing links are kept.
func (t *Tx) LinkGenre(songID, genreID int64) error {
	_, err := t.tx.Exec(`INSERT OR IGNORE INTO song_genre (song_id, genre_id) VALUES (?, ?)`,
		songID, genreID)
	return err
}

// LinkArtistGenre associates an artist with a genre. Existing links are kept.
func (t *Tx) LinkArtistGenre(artistID, genreID int64) error {
	_, err := t.tx.Exec(`INSERT OR IGNORE INTO artist_genre (artist_id, genre_id) VALUES (?, ?)`,
		artistID, genreID)
	return err
}

// Artists returns every artist ordered by name.
func (l *Library) Artists() ([]Artist, error) {
	var artists []Artist
	err := l.db.Select(&artists, `
		SELECT id, name, created_at FROM artists ORDER BY name COLLATE NOCASE, id
	`)
	return artists, err
}

// Genres returns every genre ordered by name.
func (l *Library) Genres() ([]Genre, error) {
	var genres []Genre
	err := l.db.Select(&genres, `
		SELECT id, name, created_at FROM genres ORDER BY name COLLATE NOCASE, id
	`)
	return genres, err
}

// SongGenres returns the genres linked to a song.
func (l *Library) SongGenres(songID int64) ([]Genre, error) {
	var genres []Genre
	err := l.db.Select(&genres, `
		SELECT g.id, g.name, g.created_at
		FROM genres g
		JOIN song_genre sg ON sg.genre_id = g.id
		WHERE sg.song_id = ?
		ORDER BY g.name COLLATE NOCASE, g.id
	`, songID)
	return genres, err
}

// ArtistGenres returns the genres linked to an artist.
func (l *Library) ArtistGenres(artistID int64) ([]Genre, error) {
	var genres []Genre
	err := l.db.Select(&genres, `
		SELECT g.id, g.name, g.created_at
		FROM genres g
		JOIN artist_genre ag ON ag.genre_id = g.id
		WHERE ag.artist_id = ?
		ORDER BY g.name COLLATE NOCASE, g.id
	`, artistID)
	return genres, err
}

// DeleteArtist removes an artist together with its song links, genre links
// and albums. Songs that pointed at a removed album keep a NULL album.
// Deleting an absent artist is a no-op.
func (l *Library) DeleteArtist(id int64) error {
	_, err := l.db.Exec(`DELETE FROM artists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete artist %d: %w", id, err)
	}
	return nil
}
