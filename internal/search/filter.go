// Package search filters, sorts and queries flattened song rows.
package search

import (
	"slices"
	"strings"

	"github.com/llehouerou/songbook/internal/library"
)

// Filter returns the songs whose title, any artist or album contains query,
// ignoring case. A blank query returns a copy of songs in the same order.
func Filter(songs []library.Song, query string) []library.Song {
	query = normalize(query)
	if query == "" {
		return slices.Clone(songs)
	}

	matched := make([]library.Song, 0, len(songs))
	for _, s := range songs {
		if matches(s, query) {
			matched = append(matched, s)
		}
	}
	return matched
}

func matches(s library.Song, query string) bool {
	if strings.Contains(normalize(s.Title), query) || strings.Contains(normalize(s.Album), query) {
		return true
	}
	if strings.Contains(normalize(s.Artist), query) {
		return true
	}
	return slices.ContainsFunc(s.Artists, func(a string) bool {
		return strings.Contains(normalize(a), query)
	})
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
