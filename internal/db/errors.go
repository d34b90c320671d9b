package db

import (
	"errors"
	"strings"
)

var (
	ErrValidation       = errors.New("catalog: invalid input")
	ErrNotFound         = errors.New("catalog: not found")
	ErrConflict         = errors.New("catalog: constraint conflict")
	ErrProtected        = errors.New("catalog: protected entity")
	ErrSchemaCorruption = errors.New("catalog: schema corruption")
	ErrDowngrade        = errors.New("catalog: schema downgrade not supported")
	ErrUnknownVersion   = errors.New("catalog: unknown schema version")
)

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsProtected(err error) bool  { return errors.Is(err, ErrProtected) }

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// IsForeignKeyViolation reports whether err is a SQLite FOREIGN KEY failure.
func IsForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
