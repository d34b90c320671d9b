// Package library is the entity repository of the catalog: songs, artists,
// genres, albums and the junction tables linking them.
package library

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	dbutil "github.com/llehouerou/songbook/internal/db"
	"github.com/llehouerou/songbook/internal/store"
)

// Duplicate is returned by InsertSong instead of an id when a song with the
// same file path already exists. It is not an error.
const Duplicate int64 = -1

// Song is a flattened catalog row.
type Song struct {
	ID          int64
	Title       string
	FilePath    string
	Duration    int64 // milliseconds
	TrackNumber int
	CreatedAt   int64
	UpdatedAt   int64
	AlbumID     *int64
	Artist      string   // primary artist: lowest artist id among the song's artists
	Artists     []string // ordered by artist id
	Album       string
}

// SongFields are the columns a caller supplies when inserting a song.
type SongFields struct {
	Title       string `validate:"required"`
	FilePath    string `validate:"required"`
	Duration    int64  `validate:"gte=0"`
	TrackNumber int    `validate:"gte=0"`
}

// MetadataUpdate describes an enrichment of an existing song. Nil pointers
// leave the corresponding field alone. Artists always replaces the song's
// artist set, so an empty slice unlinks every artist.
type MetadataUpdate struct {
	Title   *string
	Artists []string
	Album   *string
	Genre   *string
}

// Artist is a row of the artists table.
type Artist struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
}

// Genre is a row of the genres table.
type Genre struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
}

// Library reads and writes catalog entities.
type Library struct {
	db       *sqlx.DB
	st       *store.Store
	log      *slog.Logger
	validate *validator.Validate
}

func New(st *store.Store) *Library {
	return &Library{
		db:       st.DB(),
		st:       st,
		log:      st.Logger("library"),
		validate: validator.New(),
	}
}

// Tx exposes the repository's write operations inside one transaction, so a
// caller can group several of them atomically.
type Tx struct {
	tx  *sqlx.Tx
	lib *Library
	now int64
}

// Update runs fn in a transaction. Any error returned by fn rolls back every
// write made through the Tx.
func (l *Library) Update(fn func(*Tx) error) error {
	return dbutil.WithTx(l.db, func(tx *sqlx.Tx) error {
		return fn(&Tx{tx: tx, lib: l, now: l.st.Now()})
	})
}

// Querier returns the transaction for callers that need raw access.
func (t *Tx) Querier() dbutil.Querier {
	return t.tx
}

func (l *Library) validateFields(f SongFields) error {
	if err := l.validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %w", dbutil.ErrValidation, err)
	}
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.FilePath) == "" {
		return fmt.Errorf("%w: blank title or file path", dbutil.ErrValidation)
	}
	return nil
}

func validateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty %s name", dbutil.ErrValidation, kind)
	}
	return nil
}
