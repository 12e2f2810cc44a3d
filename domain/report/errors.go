package report

import "errors"

// Domain errors for report store operations.
var (
	// ErrReportNotFound is returned when a report does not exist.
	ErrReportNotFound = errors.New("report not found")

	// ErrReportExists is returned when saving a run id that is already stored.
	ErrReportExists = errors.New("report already exists")

	// ErrInvalidRunID is returned when a run ID is empty.
	ErrInvalidRunID = errors.New("invalid run ID")

	// ErrInvalidStatus is returned when a report carries an unknown status.
	ErrInvalidStatus = errors.New("invalid report status")

	// ErrConnectionFailed is returned when connection to the store backend fails.
	ErrConnectionFailed = errors.New("report store connection failed")
)
