package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/aussiebroadwan/billboard/internal/blog/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConflict turns a unique constraint violation into a *store.ConflictError
// naming the offending column. Other errors pass through untouched.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite.Error
	unique := errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	if !unique && !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return err
	}

	// Message shape: "UNIQUE constraint failed: users.email (2067)"
	field := ""
	if _, cols, ok := strings.Cut(err.Error(), "UNIQUE constraint failed: "); ok {
		parts := strings.FieldsFunc(cols, func(r rune) bool {
			return r == ',' || r == ' ' || r == '('
		})
		if len(parts) > 0 {
			field = parts[0]
			if _, col, ok := strings.Cut(field, "."); ok {
				field = col
			}
		}
	}
	return &store.ConflictError{Field: field}
}
