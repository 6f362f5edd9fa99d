package ledger

import (
	"errors"
	"fmt"
)

// ErrPersistence is returned when the storage backend fails to read or
// write ledger state. The in-memory aggregates always retain the
// committed delta; the error tells the caller the on-disk copy may be
// stale. The next successful save writes the full current state.
var ErrPersistence = errors.New("ledger persistence failure")

// PersistenceError carries the failed operation and underlying cause.
// It matches ErrPersistence via errors.Is and exposes the cause through
// errors.As / Unwrap.
type PersistenceError struct {
	// Op is the backend operation that failed ("load", "save").
	Op string

	// Path identifies the storage location, when known.
	Path string

	// Err is the underlying error from the backend.
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("ledger %s failed for %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is reports a match for the ErrPersistence sentinel.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
