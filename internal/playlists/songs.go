package playlists

import (
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"

	dbutil "github.com/llehouerou/songbook/internal/db"
	"github.com/llehouerou/songbook/internal/library"
	"github.com/llehouerou/songbook/internal/store"
)

// ItemStatus is the outcome of adding one song to a playlist.
type ItemStatus int

const (
	ItemAdded ItemStatus = iota
	ItemDuplicate
	ItemFailed
)

func (s ItemStatus) String() string {
	switch s {
	case ItemAdded:
		return "added"
	case ItemDuplicate:
		return "duplicate"
	case ItemFailed:
		return "failed"
	default:
		return fmt.Sprintf("ItemStatus(%d)", int(s))
	}
}

// ItemResult reports what happened to one requested song.
type ItemResult struct {
	SongID   int64
	Status   ItemStatus
	Position int   // set when Status is ItemAdded
	Err      error // set when Status is ItemFailed
}

// AddReport lists one result per requested song, in request order.
type AddReport struct {
	Items []ItemResult
}

// Added returns how many songs were inserted.
func (r AddReport) Added() int {
	n := 0
	for _, item := range r.Items {
		if item.Status == ItemAdded {
			n++
		}
	}
	return n
}

// Skipped returns the results that were not inserted.
func (r AddReport) Skipped() []ItemResult {
	var skipped []ItemResult
	for _, item := range r.Items {
		if item.Status != ItemAdded {
			skipped = append(skipped, item)
		}
	}
	return skipped
}

// PlaylistSong is a playlist member with its position.
type PlaylistSong struct {
	library.Song
	Position int
}

// AddSongs appends songs after the playlist's last position. Songs already
// in the playlist are skipped as duplicates and rows that fail, such as
// unknown song ids, are skipped without aborting the batch.
func (p *Playlists) AddSongs(playlistID int64, songIDs []int64) (AddReport, error) {
	if playlistID == store.QueuePlaylistID {
		if err := p.ensureQueue(); err != nil {
			return AddReport{}, err
		}
	}
	if len(songIDs) == 0 {
		return AddReport{}, nil
	}

	var report AddReport
	err := dbutil.WithTx(p.db, func(tx *sqlx.Tx) error {
		report = AddReport{Items: make([]ItemResult, 0, len(songIDs))}

		var maxPos int
		if err := tx.Get(&maxPos, `
			SELECT COALESCE(MAX(position), 0) FROM playlist_songs WHERE playlist_id = ?
		`, playlistID); err != nil {
			return err
		}

		stmt, err := tx.Preparex(`
			INSERT OR IGNORE INTO playlist_songs (playlist_id, song_id, position, created_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := p.st.Now()
		next := maxPos + 1
		for _, songID := range songIDs {
			item := ItemResult{SongID: songID}
			res, err := stmt.Exec(playlistID, songID, next, now)
			switch {
			case err != nil:
				item.Status = ItemFailed
				item.Err = err
			case rowsAffected(res) == 0:
				item.Status = ItemDuplicate
			default:
				item.Status = ItemAdded
				item.Position = next
				next++
			}
			report.Items = append(report.Items, item)
		}
		return nil
	})
	if err != nil {
		return AddReport{}, fmt.Errorf("add songs to playlist %d: %w", playlistID, err)
	}

	for _, item := range report.Skipped() {
		reason := store.SkipDuplicate
		if item.Status == ItemFailed {
			reason = store.SkipFailed
			p.log.Debug("playlist item failed", "playlist", playlistID, "song", item.SongID, "error", item.Err)
		}
		p.st.Metrics().PlaylistSkipped.WithLabelValues(reason).Inc()
	}
	return report, nil
}

func rowsAffected(res interface{ RowsAffected() (int64, error) }) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// RemoveSongs removes songs from a playlist and closes the gaps they leave.
func (p *Playlists) RemoveSongs(playlistID int64, songIDs []int64) (int, error) {
	if len(songIDs) == 0 {
		return 0, nil
	}

	var removed int64
	err := dbutil.WithTx(p.db, func(tx *sqlx.Tx) error {
		query, args, err := sqlx.In(`
			DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id IN (?)
		`, playlistID, songIDs)
		if err != nil {
			return err
		}
		res, err := tx.Exec(tx.Rebind(query), args...)
		if err != nil {
			return err
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		if removed == 0 {
			return nil
		}
		return store.CompactPositions(tx, playlistID)
	})
	if err != nil {
		return 0, fmt.Errorf("remove songs from playlist %d: %w", playlistID, err)
	}
	return int(removed), nil
}

// Reorder sets the position of each song in positions in one transaction
// and returns how many rows changed. The caller supplies a consistent
// permutation; positions are not checked for density.
func (p *Playlists) Reorder(playlistID int64, positions map[int64]int) (int, error) {
	if len(positions) == 0 {
		return 0, nil
	}

	var updated int64
	err := dbutil.WithTx(p.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.Preparex(`
			UPDATE playlist_songs SET position = ? WHERE playlist_id = ? AND song_id = ?
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for songID, pos := range positions {
			res, err := stmt.Exec(pos, playlistID, songID)
			if err != nil {
				return err
			}
			updated += rowsAffected(res)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reorder playlist %d: %w", playlistID, err)
	}
	return int(updated), nil
}

// Move shifts the songs at the given 1-based positions by delta (negative
// moves toward the start) and returns their new positions. A move that
// would leave the playlist's bounds changes nothing and returns positions
// unchanged.
func (p *Playlists) Move(playlistID int64, positions []int, delta int) ([]int, error) {
	if len(positions) == 0 || delta == 0 {
		return slices.Clone(positions), nil
	}

	moved := slices.Clone(positions)
	err := dbutil.WithTx(p.db, func(tx *sqlx.Tx) error {
		ids, err := orderedSongIDs(tx, playlistID)
		if err != nil {
			return err
		}

		calc := newPositionCalculator(positions, len(ids), delta)
		if !calc.canMove() {
			return nil
		}

		if err := writeOrder(tx, playlistID, calc.apply(ids)); err != nil {
			return err
		}
		moved = calc.newPositions(positions)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("move songs in playlist %d: %w", playlistID, err)
	}
	return moved, nil
}

// Clear removes every song from a playlist.
func (p *Playlists) Clear(playlistID int64) error {
	_, err := p.db.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ?`, playlistID)
	return err
}

// Songs returns a playlist's songs ordered by position.
func (p *Playlists) Songs(playlistID int64) ([]PlaylistSong, error) {
	if playlistID == store.QueuePlaylistID {
		if err := p.ensureQueue(); err != nil {
			return nil, err
		}
	}

	var rows []struct {
		library.SongRow
		Position int `db:"position"`
	}
	err := p.db.Select(&rows, library.SongSelect(", ps.position")+`
		JOIN playlist_songs ps ON ps.song_id = s.id
		WHERE ps.playlist_id = ?
		ORDER BY ps.position, ps.created_at, s.id
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("list songs of playlist %d: %w", playlistID, err)
	}

	songs := make([]PlaylistSong, 0, len(rows))
	for _, r := range rows {
		s, err := r.Song()
		if err != nil {
			return nil, err
		}
		songs = append(songs, PlaylistSong{Song: s, Position: r.Position})
	}
	return songs, nil
}

// ReplaceQueue swaps the whole queue for songIDs, positioned by input order.
// Either every id is inserted or the previous queue is kept.
func (p *Playlists) ReplaceQueue(songIDs []int64) error {
	seen := make(map[int64]struct{}, len(songIDs))
	for _, id := range songIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: song %d appears twice", dbutil.ErrValidation, id)
		}
		seen[id] = struct{}{}
	}

	err := dbutil.WithTx(p.db, func(tx *sqlx.Tx) error {
		now := p.st.Now()
		if err := store.EnsureQueue(tx, now); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ?`, store.QueuePlaylistID); err != nil {
			return err
		}

		stmt, err := tx.Preparex(`
			INSERT INTO playlist_songs (playlist_id, song_id, position, created_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, songID := range songIDs {
			if _, err := stmt.Exec(store.QueuePlaylistID, songID, i+1, now); err != nil {
				return fmt.Errorf("queue song %d: %w", songID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace queue: %w", err)
	}
	return nil
}

func orderedSongIDs(q dbutil.Querier, playlistID int64) ([]int64, error) {
	var ids []int64
	err := sqlx.Select(q, &ids, `
		SELECT song_id FROM playlist_songs
		WHERE playlist_id = ?
		ORDER BY position, created_at, song_id
	`, playlistID)
	return ids, err
}

// writeOrder sets positions 1..n following ids.
func writeOrder(q dbutil.Querier, playlistID int64, ids []int64) error {
	for i, songID := range ids {
		if _, err := q.Exec(`
			UPDATE playlist_songs SET position = ? WHERE playlist_id = ? AND song_id = ?
		`, i+1, playlistID, songID); err != nil {
			return err
		}
	}
	return nil
}
