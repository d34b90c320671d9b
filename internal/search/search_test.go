package search

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/songbook/internal/library"
	"github.com/llehouerou/songbook/internal/logging"
	"github.com/llehouerou/songbook/internal/store"
)

func testSongs() []library.Song {
	return []library.Song{
		{ID: 1, Title: "Kickstart My Heart", Artist: "Mötley Crüe", Artists: []string{"Mötley Crüe", "Tommy Lee"}, Album: "Dr. Feelgood", Duration: 282_000, CreatedAt: 30},
		{ID: 2, Title: "Tom's Diner", Artist: "Suzanne Vega", Artists: []string{"Suzanne Vega"}, Duration: 129_000, CreatedAt: 10},
		{ID: 3, Title: "Atomic", Artist: "Blondie", Artists: []string{"Blondie"}, Album: "Eat to the Beat", Duration: 275_000, CreatedAt: 20},
		{ID: 4, Title: "Heroes", Artist: "David Bowie", Artists: []string{"David Bowie"}, Album: "Heroes", Duration: 371_000, CreatedAt: 20},
	}
}

func ids(songs []library.Song) []int64 {
	out := make([]int64, 0, len(songs))
	for _, s := range songs {
		out = append(out, s.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	songs := testSongs()

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"secondary artist", "tom", []int64{1, 2, 3}},
		{"case insensitive", "TOMMY", []int64{1}},
		{"album", "feelgood", []int64{1}},
		{"non ascii", "CRÜE", []int64{1}},
		{"surrounding space", "  bowie ", []int64{4}},
		{"no match", "zzz", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(songs, tt.query)))
		})
	}
}

func TestFilter_BlankQueryReturnsCopy(t *testing.T) {
	songs := testSongs()

	got := Filter(songs, "   ")
	assert.Equal(t, songs, got)

	got[0].Title = "changed"
	assert.Equal(t, "Kickstart My Heart", songs[0].Title)
}

func TestSort(t *testing.T) {
	songs := testSongs()

	tests := []struct {
		key       Key
		ascending bool
		want      []int64
	}{
		{ByTitle, true, []int64{3, 4, 1, 2}},
		{ByArtist, true, []int64{3, 4, 1, 2}},
		{ByAlbum, true, []int64{2, 1, 3, 4}},
		{ByDuration, false, []int64{4, 1, 3, 2}},
		{ByDateAdded, true, []int64{2, 3, 4, 1}},
		{ByDateAdded, false, []int64{1, 3, 4, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Sort(songs, tt.key, tt.ascending)))
		})
	}

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(songs), "input must not be reordered")
}

func TestSort_ComposesWithFilter(t *testing.T) {
	got := Sort(Filter(testSongs(), "tom"), ByDuration, true)
	assert.Equal(t, []int64{2, 3, 1}, ids(got))
}

func TestParseKey(t *testing.T) {
	for name, want := range map[string]Key{
		"title":    ByTitle,
		"Artist":   ByArtist,
		"album":    ByAlbum,
		"duration": ByDuration,
		"added":    ByDateAdded,
		"date":     ByDateAdded,
	} {
		got, err := ParseKey(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseKey("rating")
	require.Error(t, err)
}

func setupTestSearcher(t *testing.T) *Searcher {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"), store.WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	lib := library.New(st)
	for _, s := range []struct {
		title, path string
		artists     []string
		album       string
	}{
		{"Kickstart My Heart", "/a.mp3", []string{"Motley Crue", "Tommy Lee"}, "Dr. Feelgood"},
		{"100% Pure", "/b.mp3", []string{"Someone"}, ""},
		{"snake_case", "/c.mp3", []string{"Coder"}, "Atom_Heart"},
	} {
		_, _, err := lib.ImportSong(library.SongFields{Title: s.title, FilePath: s.path}, s.artists, "")
		require.NoError(t, err)
		if s.album != "" {
			require.NoError(t, lib.UpdateSongMetadata(s.path, library.MetadataUpdate{Artists: s.artists, Album: &s.album}))
		}
	}
	return NewSearcher(st)
}

func TestSearcher_Search(t *testing.T) {
	s := setupTestSearcher(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"secondary artist", "tommy", []string{"Kickstart My Heart"}},
		{"album", "feelgood", []string{"Kickstart My Heart"}},
		{"percent is literal", "%", []string{"100% Pure"}},
		{"underscore is literal", "_", []string{"snake_case"}},
		{"heart in title or album", "heart", []string{"Kickstart My Heart", "snake_case"}},
		{"blank", " ", []string{"Kickstart My Heart", "100% Pure", "snake_case"}},
		{"no match", "nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			songs, err := s.Search(tt.query)
			require.NoError(t, err)
			var titles []string
			for _, song := range songs {
				titles = append(titles, song.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\ ok`, escapeLike(`50% off_now \ ok`))
}
