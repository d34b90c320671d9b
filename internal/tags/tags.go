// Package tags reads the metadata the catalog imports from music files.
package tags

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// File extensions the importer accepts.
const (
	ExtMP3  = ".mp3"
	ExtFLAC = ".flac"
	ExtOPUS = ".opus"
	ExtOGG  = ".ogg"
	ExtM4A  = ".m4a"
	ExtMP4  = ".mp4"
)

var musicExts = []string{ExtMP3, ExtFLAC, ExtOPUS, ExtOGG, ExtM4A, ExtMP4}

// Tag is the subset of file metadata the catalog stores.
type Tag struct {
	Path        string
	Title       string
	Artists     []string // track artists, in tag order
	Album       string
	Genre       string
	TrackNumber int
	Duration    time.Duration // zero when the stream could not be probed
}

// IsMusicFile reports whether path has a supported music file extension.
func IsMusicFile(path string) bool {
	return slices.Contains(musicExts, strings.ToLower(filepath.Ext(path)))
}

// splitArtists splits multi-artist tag values on ';' and drops blanks and
// repeats. '/' is not a separator because names like AC/DC contain it.
func splitArtists(values ...string) []string {
	var artists []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ";") {
			part = strings.TrimSpace(part)
			if part != "" && !slices.Contains(artists, part) {
				artists = append(artists, part)
			}
		}
	}
	return artists
}

// parseTrackNumber parses a track number string like "5" or "5/10".
func parseTrackNumber(s string) (num, total int) {
	if s == "" {
		return 0, 0
	}
	if idx := strings.Index(s, "/"); idx >= 0 {
		num, _ = strconv.Atoi(strings.TrimSpace(s[:idx]))
		total, _ = strconv.Atoi(strings.TrimSpace(s[idx+1:]))
		return num, total
	}
	num, _ = strconv.Atoi(strings.TrimSpace(s))
	return num, 0
}

// taglibTags wraps a taglib result map with helper methods.
type taglibTags map[string][]string

// get returns the first value for any of the given keys, or empty string if not found.
func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values, ok := t[key]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
