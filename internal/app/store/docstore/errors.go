package docstore

import "errors"

var (
	// ErrNotFound is returned by point lookups and removes when no document
	// exists at the requested key. Callers translate it into an absence
	// response rather than treating it as a failure.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when a write's revision token does not match
	// the currently stored revision. The caller may retry with a fresh read.
	ErrConflict = errors.New("document revision conflict")

	// ErrUnavailable is returned when the underlying store is closed or the
	// backend fails at the transport level.
	ErrUnavailable = errors.New("document store unavailable")
)
