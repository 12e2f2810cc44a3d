package application

import "errors"

// Application errors.
var (
	// ErrNoWorld indicates a simulation was configured without a board.
	ErrNoWorld = errors.New("simulation requires a world")

	// ErrNotStarted indicates Tick was called before Start.
	ErrNotStarted = errors.New("simulation not started")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("simulation already started")

	// ErrFinished indicates the run has already produced its report.
	ErrFinished = errors.New("simulation finished")

	// ErrNoRoutine indicates an agent has no routine assigned.
	ErrNoRoutine = errors.New("no routine assigned")

	// ErrStepInvariant indicates an agent moved more than one unit along an
	// axis in a single tick.
	ErrStepInvariant = errors.New("agent moved more than one step")

	// ErrNoCandidates indicates the selector could not find distinct agents
	// to protect and guard against.
	ErrNoCandidates = errors.New("not enough agents to select from")
)
