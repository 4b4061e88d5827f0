package storage

import "errors"

// Storage errors for the registry mirror and event stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. The registry is append-only.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrMetadataRecorded is returned when the one-time metadata field of
	// a mirrored record has already been written.
	ErrMetadataRecorded = errors.New("metadata already recorded")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
