package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when an insert or update violates a unique
	// constraint (duplicate email, username, or token value).
	ErrConflict = errors.New("record already exists")
)
