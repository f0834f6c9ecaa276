package parse

import "errors"

var (
	// ErrParse is returned when a file cannot be opened or decoded.
	ErrParse = errors.New("parse: unreadable file")
	// ErrFormat is returned when a date or row shape cannot be interpreted.
	ErrFormat = errors.New("parse: unrecognized format")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("parse: missing column")
	// ErrPeriodInference is returned when no YYYYMM period can be derived
	// from a filename.
	ErrPeriodInference = errors.New("parse: period not inferable from filename")
)
