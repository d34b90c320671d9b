package store

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"

	dbutil "github.com/llehouerou/songbook/internal/db"
)

// IntegrityReport describes what VerifyIntegrity found and did.
type IntegrityReport struct {
	Missing   []string // tables absent on the first check
	Repaired  bool     // the in-place repair restored every missing table
	Recreated []string // tables dropped and rebuilt, losing their rows
}

// OK reports whether the schema was intact without any recovery.
func (r IntegrityReport) OK() bool {
	return len(r.Missing) == 0
}

// VerifyIntegrity checks that every expected table exists. Missing tables
// are repaired by re-running the upgrade steps. When that is not enough the
// objects occupying the expected names are dropped and rebuilt.
func (s *Store) VerifyIntegrity() (IntegrityReport, error) {
	var report IntegrityReport

	missing, err := s.missingTables()
	if err != nil {
		return report, fmt.Errorf("check schema: %w", err)
	}
	if len(missing) == 0 {
		return report, nil
	}
	report.Missing = missing

	s.log.Warn("schema corruption detected, attempting repair", "missing", missing)

	repairErr := s.Upgrade(0, LatestVersion)
	if repairErr == nil {
		stillMissing, err := s.missingTables()
		if err != nil {
			return report, fmt.Errorf("recheck schema: %w", err)
		}
		if len(stillMissing) == 0 {
			report.Repaired = true
			s.metrics.SchemaRecoveries.WithLabelValues(RecoveryRepair).Inc()
			s.log.Warn("schema repaired in place", "tables", missing)
			return report, nil
		}
		missing = stillMissing
	}

	recreated, err := s.recreate(missing)
	if err != nil {
		return report, fmt.Errorf("%w: recreate %v: %w", dbutil.ErrSchemaCorruption, missing, err)
	}
	report.Recreated = recreated
	s.metrics.SchemaRecoveries.WithLabelValues(RecoveryRecreate).Inc()
	s.log.Error("schema recreated, stored rows in affected tables were lost",
		"tables", recreated, "repair_error", repairErr)

	return report, nil
}

func (s *Store) missingTables() ([]string, error) {
	var present []string
	if err := s.db.Select(&present, `SELECT name FROM sqlite_master WHERE type = 'table'`); err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range expectedTables {
		if !slices.Contains(present, name) {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// recreate drops whatever object holds each name and rebuilds the schema.
func (s *Store) recreate(names []string) ([]string, error) {
	err := dbutil.WithTx(s.db, func(tx *sqlx.Tx) error {
		for _, name := range names {
			if err := dropObject(tx, name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Upgrade(0, LatestVersion); err != nil {
		return nil, err
	}

	stillMissing, err := s.missingTables()
	if err != nil {
		return nil, err
	}
	if len(stillMissing) > 0 {
		return nil, fmt.Errorf("tables still missing: %v", stillMissing)
	}
	return names, nil
}

func dropObject(tx *sqlx.Tx, name string) error {
	var kind string
	err := tx.Get(&kind, `SELECT type FROM sqlite_master WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	var stmt string
	switch kind {
	case "view":
		stmt = `DROP VIEW IF EXISTS "` + name + `"`
	case "table":
		stmt = `DROP TABLE IF EXISTS "` + name + `"`
	case "index":
		stmt = `DROP INDEX IF EXISTS "` + name + `"`
	case "trigger":
		stmt = `DROP TRIGGER IF EXISTS "` + name + `"`
	default:
		return fmt.Errorf("cannot drop %s %q", kind, name)
	}
	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("drop %s %q: %w", kind, name, err)
	}
	return nil
}
