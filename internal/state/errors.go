package state

import "errors"

var (
	// ErrNotFound indicates the metadata file does not exist yet
	ErrNotFound = errors.New("metadata file not found")

	// ErrCorrupted indicates the metadata file contains invalid JSON
	ErrCorrupted = errors.New("metadata file is corrupted")
)
