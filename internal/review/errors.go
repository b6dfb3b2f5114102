package review

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Error kinds surfaced by the scheduling service. Callers match them with
// errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrInvalidSheet means the sheet slug is not in the registry
	ErrInvalidSheet = errors.New("unknown sheet")
	// ErrItemNotFound means confirm/remove targeted an untracked problem
	ErrItemNotFound = errors.New("review item not found")
	// ErrStorageUnavailable means the store kept failing after retries;
	// the caller should retry later
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrConflict means a concurrent writer raced this operation twice
	ErrConflict = errors.New("concurrent modification conflict")
)

// isConflict reports whether a storage error was caused by a concurrent
// writer rather than by the store being down. For SQLite that shows up as a
// constraint violation on the (user, sheet, problem) key; for Postgres as a
// unique violation or serialization failure.
func isConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" || pqErr.Code == "40001"
	}
	return false
}
