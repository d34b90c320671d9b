package db

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	// every pooled connection would otherwise get its own in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE playlists (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE);
		CREATE TABLE playlist_songs (
			playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			song_id INTEGER NOT NULL,
			PRIMARY KEY (playlist_id, song_id)
		);
	`)
	if err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
	return db
}

func countRows(t *testing.T, q Querier, table string) int {
	t.Helper()
	var n int
	if err := sqlx.Get(q, &n, `SELECT COUNT(*) FROM `+table); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestWithTx_Commit(t *testing.T) {
	db := setupTestDB(t)

	err := WithTx(db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO playlists (id, name) VALUES (1, 'Mix')`); err != nil {
			return err
		}
		for song := 1; song <= 3; song++ {
			if _, err := tx.Exec(`INSERT INTO playlist_songs VALUES (1, ?)`, song); err != nil {
				return err
			}
		}
		// the tx sees its own writes through the Querier interface
		if n := countRows(t, tx, "playlist_songs"); n != 3 {
			return fmt.Errorf("in-tx count = %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	if n := countRows(t, db, "playlist_songs"); n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	abort := errors.New("abort")

	err := WithTx(db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO playlists (id, name) VALUES (1, 'Mix')`); err != nil {
			return err
		}
		if _, err := tx.Exec(`INSERT INTO playlist_songs VALUES (1, 7)`); err != nil {
			return err
		}
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("WithTx error = %v, want %v", err, abort)
	}

	if n := countRows(t, db, "playlists"); n != 0 {
		t.Errorf("playlists = %d, want 0 (rolled back)", n)
	}
	if n := countRows(t, db, "playlist_songs"); n != 0 {
		t.Errorf("playlist_songs = %d, want 0 (rolled back)", n)
	}
}

func TestWithTx_StatementFailureRollsBack(t *testing.T) {
	db := setupTestDB(t)

	err := WithTx(db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO playlists (id, name) VALUES (1, 'Mix')`); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO playlists (id, name) VALUES (2, 'Mix')`)
		return err
	})
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if n := countRows(t, db, "playlists"); n != 0 {
		t.Errorf("playlists = %d, want 0", n)
	}
}

func TestConstraintClassifiers(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Exec(`INSERT INTO playlists (id, name) VALUES (1, 'Mix')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, dupName := db.Exec(`INSERT INTO playlists (name) VALUES ('Mix')`)
	_, dupPK := db.Exec(`INSERT INTO playlists (id, name) VALUES (1, 'Other')`)
	_, orphan := db.Exec(`INSERT INTO playlist_songs VALUES (42, 1)`)

	tests := []struct {
		name   string
		err    error
		unique bool
		fk     bool
	}{
		{"nil", nil, false, false},
		{"unique name", dupName, true, false},
		{"duplicate primary key", dupPK, true, false},
		{"missing parent", orphan, false, true},
		{"wrapped", fmt.Errorf("add: %w", orphan), false, true},
		{"unrelated", errors.New("disk I/O error"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.unique {
				t.Errorf("IsUniqueViolation(%v) = %v, want %v", tt.err, got, tt.unique)
			}
			if got := IsForeignKeyViolation(tt.err); got != tt.fk {
				t.Errorf("IsForeignKeyViolation(%v) = %v, want %v", tt.err, got, tt.fk)
			}
		})
	}
}

func TestSentinelHelpers(t *testing.T) {
	err := fmt.Errorf("delete playlist 1: %w", ErrProtected)
	if !IsProtected(err) || IsNotFound(err) || IsValidation(err) {
		t.Errorf("helpers misclassify %v", err)
	}
	if !IsNotFound(fmt.Errorf("%w: song 9", ErrNotFound)) {
		t.Error("IsNotFound should see through wrapping")
	}
	if !IsValidation(fmt.Errorf("%w: empty name", ErrValidation)) {
		t.Error("IsValidation should see through wrapping")
	}
}

func TestNullHelpers(t *testing.T) {
	if p := NullInt64ToPtr(sql.NullInt64{Int64: 42, Valid: true}); p == nil || *p != 42 {
		t.Errorf("NullInt64ToPtr(valid 42) = %v", p)
	}
	if p := NullInt64ToPtr(sql.NullInt64{Int64: 0, Valid: true}); p == nil || *p != 0 {
		t.Errorf("NullInt64ToPtr(valid 0) = %v, want pointer to 0", p)
	}
	if p := NullInt64ToPtr(sql.NullInt64{Int64: 42}); p != nil {
		t.Errorf("NullInt64ToPtr(null) = %d, want nil", *p)
	}

	if v := NullInt64Value(sql.NullInt64{Int64: 123, Valid: true}); v != 123 {
		t.Errorf("NullInt64Value(valid) = %d, want 123", v)
	}
	if v := NullInt64Value(sql.NullInt64{Int64: 123}); v != 0 {
		t.Errorf("NullInt64Value(null) = %d, want 0", v)
	}
	if s := NullStringValue(sql.NullString{String: "cover.jpg"}); s != "" {
		t.Errorf("NullStringValue(null) = %q, want empty", s)
	}

	if got := NullString(""); got.Valid {
		t.Errorf("NullString(\"\") should be NULL, got %+v", got)
	}
	if got := NullString("cover.jpg"); !got.Valid || got.String != "cover.jpg" {
		t.Errorf("NullString(\"cover.jpg\") = %+v", got)
	}
	if got := NullInt64(0); got.Valid {
		t.Errorf("NullInt64(0) should be NULL, got %+v", got)
	}
	if got := NullInt64(7); !got.Valid || got.Int64 != 7 {
		t.Errorf("NullInt64(7) = %+v", got)
	}
}
