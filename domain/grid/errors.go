package grid

import "errors"

// Domain errors for board and roster access.
var (
	// ErrIndexOutOfRange indicates a roster index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("agent index out of range")

	// ErrEmptyRoster indicates the board has no agents.
	ErrEmptyRoster = errors.New("agent roster is empty")

	// ErrInvalidSize indicates a board size below one cell.
	ErrInvalidSize = errors.New("invalid grid size")

	// ErrCellOutOfBounds indicates cell coordinates outside [1, Size()].
	ErrCellOutOfBounds = errors.New("cell out of bounds")

	// ErrDuplicateAgent indicates an agent name is already on the roster.
	ErrDuplicateAgent = errors.New("agent already exists")
)
