package search

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/llehouerou/songbook/internal/library"
)

// Key selects the field songs are sorted by.
type Key int

const (
	ByTitle Key = iota
	ByArtist
	ByAlbum
	ByDuration
	ByDateAdded
)

var keyNames = map[Key]string{
	ByTitle:     "title",
	ByArtist:    "artist",
	ByAlbum:     "album",
	ByDuration:  "duration",
	ByDateAdded: "added",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// ParseKey maps a key name ("title", "artist", "album", "duration",
// "added") to a Key.
func ParseKey(name string) (Key, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "date" || name == "date_added" {
		return ByDateAdded, nil
	}
	for k, n := range keyNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown sort key %q", name)
}

// Sort returns a sorted copy of songs. Equal keys keep their input order and
// a song without album sorts as an empty album name.
func Sort(songs []library.Song, key Key, ascending bool) []library.Song {
	sorted := slices.Clone(songs)
	cmpFn := comparator(key)
	slices.SortStableFunc(sorted, func(a, b library.Song) int {
		if ascending {
			return cmpFn(a, b)
		}
		return cmpFn(b, a)
	})
	return sorted
}

func comparator(key Key) func(a, b library.Song) int {
	switch key {
	case ByArtist:
		return func(a, b library.Song) int { return compareText(a.Artist, b.Artist) }
	case ByAlbum:
		return func(a, b library.Song) int { return compareText(a.Album, b.Album) }
	case ByDuration:
		return func(a, b library.Song) int { return cmp.Compare(a.Duration, b.Duration) }
	case ByDateAdded:
		return func(a, b library.Song) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) }
	default:
		return func(a, b library.Song) int { return compareText(a.Title, b.Title) }
	}
}

func compareText(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}
