package artifact

import "errors"

var (
	// ErrNotFound is returned when an artifact does not exist in the store.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalidName is returned for names containing path separators or
	// parent references.
	ErrInvalidName = errors.New("artifact: invalid name")
)
