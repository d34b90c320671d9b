package search

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/llehouerou/songbook/internal/library"
	"github.com/llehouerou/songbook/internal/store"
)

// Searcher runs substring searches inside the database, for catalogs too
// large to load and Filter in memory.
type Searcher struct {
	db *sqlx.DB
}

func NewSearcher(st *store.Store) *Searcher {
	return &Searcher{db: st.DB()}
}

// Search returns songs whose title, an artist or album contains query.
// LIKE folds ASCII letters only. A blank query returns every song.
func (s *Searcher) Search(query string) ([]library.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return library.SelectSongs(s.db, library.SongSelect("")+` ORDER BY s.id`)
	}

	pattern := "%" + escapeLike(query) + "%"
	songs, err := library.SelectSongs(s.db, library.SongSelect("")+`
		WHERE s.title LIKE ? ESCAPE '\'
		   OR al.name LIKE ? ESCAPE '\'
		   OR EXISTS (
				SELECT 1 FROM song_artist sa JOIN artists a ON a.id = sa.artist_id
				WHERE sa.song_id = s.id AND a.name LIKE ? ESCAPE '\'
		   )
		ORDER BY s.id
	`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return songs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
