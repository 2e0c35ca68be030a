package service

import "errors"

// Error kinds returned by the schedule engine. Details are wrapped around
// them, test with errors.Is.
var (
	// ErrValidation rejects a request before anything is changed.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports an unknown schedule id in the zone.
	ErrNotFound = errors.New("not found")
	// ErrStoreFailure means the change is applied in memory but was not
	// saved. Persist may be retried.
	ErrStoreFailure = errors.New("store failure")
)
