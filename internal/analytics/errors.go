package analytics

import "errors"

var (
	// ErrReferenceNotFound means a reference entity a view depends on is
	// missing from the snapshot, e.g. the laundry defect-type category.
	ErrReferenceNotFound = errors.New("reference not found")

	// ErrUnknownComparison is returned for an unsupported comparisonType.
	ErrUnknownComparison = errors.New("unknown comparison type")
)
