package measures

import "errors"

var (
	// ErrNilAggregate is returned when saving a nil aggregate.
	ErrNilAggregate = errors.New("measures: nil aggregate")
	// ErrAggregateNotFound is returned when an aggregate is not found.
	ErrAggregateNotFound = errors.New("measures: aggregate not found")
	// ErrUnknownWindow is returned for an unrecognized BALD window tag.
	ErrUnknownWindow = errors.New("measures: unknown BALD window")
	// ErrPatternMismatch is returned when a BALD filename does not match
	// the BALD_<id>_<YYYYMM>_<YYYYMMDD> shape.
	ErrPatternMismatch = errors.New("measures: filename does not match BALD pattern")
)
