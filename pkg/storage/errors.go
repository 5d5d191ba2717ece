package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a probe run does not exist.
	ErrNotFound = errors.New("probe run not found")

	// ErrConflict is returned when a probe run with the given ID already exists.
	ErrConflict = errors.New("probe run already exists")
)
