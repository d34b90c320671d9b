package library

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"

	dbutil "github.com/llehouerou/songbook/internal/db"
	"github.com/llehouerou/songbook/internal/store"
)

// InsertSong adds a song and returns its id. When the file path is already
// catalogued nothing is written and Duplicate is returned with a nil error.
func (l *Library) InsertSong(f SongFields) (int64, error) {
	if err := l.validateFields(f); err != nil {
		return 0, err
	}
	return l.insertSong(l.db, f, l.st.Now())
}

func (t *Tx) InsertSong(f SongFields) (int64, error) {
	if err := t.lib.validateFields(f); err != nil {
		return 0, err
	}
	return t.lib.insertSong(t.tx, f, t.now)
}

func (l *Library) insertSong(q dbutil.Querier, f SongFields, now int64) (int64, error) {
	res, err := q.Exec(`
		INSERT INTO songs (title, file_path, duration, track_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO NOTHING
	`, f.Title, f.FilePath, f.Duration, dbutil.NullInt64(int64(f.TrackNumber)), now, now)
	if err != nil {
		return 0, fmt.Errorf("insert song %q: %w", f.FilePath, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		l.st.Metrics().SongDuplicates.Inc()
		l.log.Debug("song already catalogued", "path", f.FilePath)
		return Duplicate, nil
	}
	return res.LastInsertId()
}

// ImportSong creates (or finds) a song and links it to the given artists
// and genre in one transaction. The genre is also linked to each artist.
// It reports whether the song row was new.
func (l *Library) ImportSong(f SongFields, artists []string, genre string) (int64, bool, error) {
	if err := l.validateFields(f); err != nil {
		return 0, false, err
	}
	for _, name := range artists {
		if err := validateName("artist", name); err != nil {
			return 0, false, err
		}
	}

	var (
		songID  int64
		created bool
	)
	err := l.Update(func(tx *Tx) error {
		id, err := tx.InsertSong(f)
		if err != nil {
			return err
		}
		created = id != Duplicate
		if !created {
			if id, err = songIDByPath(tx.tx, f.FilePath); err != nil {
				return err
			}
		}
		songID = id

		artistIDs := make([]int64, 0, len(artists))
		for _, name := range artists {
			artistID, err := tx.GetOrCreateArtist(name)
			if err != nil {
				return err
			}
			if err := tx.LinkArtist(songID, artistID); err != nil {
				return err
			}
			artistIDs = append(artistIDs, artistID)
		}

		if genre == "" {
			return nil
		}
		return tx.linkGenreEverywhere(songID, artistIDs, genre)
	})
	if err != nil {
		return 0, false, fmt.Errorf("import %q: %w", f.FilePath, err)
	}
	return songID, created, nil
}

func (t *Tx) linkGenreEverywhere(songID int64, artistIDs []int64, name string) error {
	genreID, err := t.GetOrCreateGenre(name)
	if err != nil {
		return err
	}
	if err := t.LinkGenre(songID, genreID); err != nil {
		return err
	}
	for _, artistID := range artistIDs {
		if err := t.LinkArtistGenre(artistID, genreID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateSongMetadata applies u to the song at filePath in one transaction.
// An unknown path is a no-op. The album name is linked as a genre, and when
// the song has an artist it also becomes the song's album, owned by the
// primary artist.
func (l *Library) UpdateSongMetadata(filePath string, u MetadataUpdate) error {
	if err := u.validate(); err != nil {
		return err
	}

	err := l.Update(func(tx *Tx) error {
		songID, err := songIDByPath(tx.tx, filePath)
		if errors.Is(err, dbutil.ErrNotFound) {
			l.log.Debug("metadata update for unknown song", "path", filePath)
			return nil
		}
		if err != nil {
			return err
		}

		if u.Title != nil {
			if _, err := tx.tx.Exec(`UPDATE songs SET title = ? WHERE id = ?`, *u.Title, songID); err != nil {
				return err
			}
		}

		artistIDs, err := tx.replaceArtists(songID, u.Artists)
		if err != nil {
			return err
		}

		if u.Album != nil {
			if err := tx.linkGenreEverywhere(songID, artistIDs, *u.Album); err != nil {
				return err
			}
			if len(artistIDs) > 0 {
				albumID, err := tx.GetOrCreateAlbum(*u.Album, slices.Min(artistIDs))
				if err != nil {
					return err
				}
				if _, err := tx.tx.Exec(`UPDATE songs SET album_id = ? WHERE id = ?`, albumID, songID); err != nil {
					return err
				}
			}
		}

		if u.Genre != nil {
			if err := tx.linkGenreEverywhere(songID, artistIDs, *u.Genre); err != nil {
				return err
			}
		}

		_, err = tx.tx.Exec(`UPDATE songs SET updated_at = ? WHERE id = ?`, tx.now, songID)
		return err
	})
	if err != nil {
		return fmt.Errorf("update metadata of %q: %w", filePath, err)
	}
	return nil
}

func (u MetadataUpdate) validate() error {
	for _, name := range u.Artists {
		if err := validateName("artist", name); err != nil {
			return err
		}
	}
	if u.Title != nil {
		if err := validateName("title", *u.Title); err != nil {
			return err
		}
	}
	if u.Album != nil {
		if err := validateName("album", *u.Album); err != nil {
			return err
		}
	}
	if u.Genre != nil {
		if err := validateName("genre", *u.Genre); err != nil {
			return err
		}
	}
	return nil
}

// replaceArtists swaps the song's artist set and returns the new artist ids
// in input order.
func (t *Tx) replaceArtists(songID int64, names []string) ([]int64, error) {
	if _, err := t.tx.Exec(`DELETE FROM song_artist WHERE song_id = ?`, songID); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := t.GetOrCreateArtist(name)
		if err != nil {
			return nil, err
		}
		if err := t.LinkArtist(songID, id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteSong removes a song, cascading its links, and compacts the
// positions of every playlist that contained it. Deleting an absent song is
// a no-op.
func (l *Library) DeleteSong(id int64) error {
	err := dbutil.WithTx(l.db, func(tx *sqlx.Tx) error {
		var playlistIDs []int64
		err := tx.Select(&playlistIDs, `SELECT playlist_id FROM playlist_songs WHERE song_id = ?`, id)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM songs WHERE id = ?`, id); err != nil {
			return err
		}

		for _, playlistID := range playlistIDs {
			if err := store.CompactPositions(tx, playlistID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete song %d: %w", id, err)
	}
	return nil
}
