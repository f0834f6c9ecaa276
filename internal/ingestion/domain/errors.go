package ingestion

import "errors"

var (
	// ErrValidation is returned when a file has no rows, or no rows
	// survive a required filter.
	ErrValidation = errors.New("ingestion: file failed validation")
	// ErrUnsupportedType is returned for an unknown file type tag.
	ErrUnsupportedType = errors.New("ingestion: unsupported file type")
	// ErrFileNotFound is returned when an ingestion file row is missing.
	ErrFileNotFound = errors.New("ingestion: file not found")
	// ErrNotProcessable is returned when dispatching a file that is not
	// in pending or error state.
	ErrNotProcessable = errors.New("ingestion: file not in a processable state")
	// ErrNoStorageKey is returned when a file row has no stored content.
	ErrNoStorageKey = errors.New("ingestion: file has no storage key")
)
