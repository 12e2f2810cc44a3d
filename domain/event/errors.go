package event

import "errors"

// Domain errors for event store operations.
var (
	// ErrRunNotFound is returned when no events exist for a run.
	ErrRunNotFound = errors.New("run not found in event store")

	// ErrInvalidEvent is returned when an event is malformed.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrConnectionFailed is returned when connection to the store backend fails.
	ErrConnectionFailed = errors.New("event store connection failed")

	// ErrStoreClosed is returned when a closed store is used.
	ErrStoreClosed = errors.New("event store closed")
)
