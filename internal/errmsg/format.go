// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"

	dbutil "github.com/llehouerou/songbook/internal/db"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Catalog
	OpCatalogOpen   Op = "open catalog"
	OpCatalogVerify Op = "verify catalog"

	// Library operations
	OpLibraryLoad   Op = "load library"
	OpLibrarySearch Op = "search library"

	// Import operations
	OpImportFile Op = "import file"
	OpImportTags Op = "read file tags"

	// Playlist operations
	OpPlaylistCreate Op = "create playlist"
	OpPlaylistDelete Op = "delete playlist"
	OpPlaylistRename Op = "rename playlist"
	OpPlaylistLoad   Op = "load playlist"
	OpPlaylistAdd    Op = "add songs to playlist"
	OpPlaylistRemove Op = "remove songs from playlist"

	// Queue operations
	OpQueueLoad   Op = "load queue"
	OpQueueSave   Op = "save queue"
	OpQueueAdd    Op = "add to queue"
	OpQueueRemove Op = "remove from queue"
	OpQueueMove   Op = "move queue items"
	OpQueueClear  Op = "clear queue"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %s", op, describe(err))
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %s", op, context, describe(err))
}

// describe replaces catalog sentinel chains with a short explanation.
func describe(err error) string {
	switch {
	case errors.Is(err, dbutil.ErrProtected):
		return "the queue is managed by songbook and cannot be changed that way"
	case errors.Is(err, dbutil.ErrNotFound):
		return "not found"
	case errors.Is(err, dbutil.ErrDowngrade):
		return "the catalog was written by a newer songbook version"
	case errors.Is(err, dbutil.ErrConflict):
		return "a playlist with that name already exists"
	default:
		return err.Error()
	}
}
