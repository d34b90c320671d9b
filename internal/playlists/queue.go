package playlists

import "github.com/llehouerou/songbook/internal/store"

// Queue is the playback queue. It offers the membership operations of a
// playlist but cannot be deleted or renamed.
type Queue struct {
	p *Playlists
}

// Queue returns the handle of the reserved queue playlist.
func (p *Playlists) Queue() *Queue {
	return &Queue{p: p}
}

func (q *Queue) ID() int64 { return store.QueuePlaylistID }

// Playlist returns the queue's metadata, creating the row if needed.
func (q *Queue) Playlist() (*Playlist, error) {
	return q.p.Get(store.QueuePlaylistID)
}

func (q *Queue) Songs() ([]PlaylistSong, error) {
	return q.p.Songs(store.QueuePlaylistID)
}

func (q *Queue) Replace(songIDs []int64) error {
	return q.p.ReplaceQueue(songIDs)
}

func (q *Queue) Append(songIDs []int64) (AddReport, error) {
	return q.p.AddSongs(store.QueuePlaylistID, songIDs)
}

func (q *Queue) Remove(songIDs []int64) (int, error) {
	if err := q.p.ensureQueue(); err != nil {
		return 0, err
	}
	return q.p.RemoveSongs(store.QueuePlaylistID, songIDs)
}

func (q *Queue) Reorder(positions map[int64]int) (int, error) {
	if err := q.p.ensureQueue(); err != nil {
		return 0, err
	}
	return q.p.Reorder(store.QueuePlaylistID, positions)
}

func (q *Queue) Move(positions []int, delta int) ([]int, error) {
	if err := q.p.ensureQueue(); err != nil {
		return nil, err
	}
	return q.p.Move(store.QueuePlaylistID, positions, delta)
}

func (q *Queue) Clear() error {
	if err := q.p.ensureQueue(); err != nil {
		return err
	}
	return q.p.Clear(store.QueuePlaylistID)
}

func (q *Queue) Count() (int, error) {
	return q.p.Count(store.QueuePlaylistID)
}
