package routine

import "errors"

// Domain errors for routines.
var (
	// ErrInvalidReference indicates a referenced agent index is outside the
	// roster or the roster is empty.
	ErrInvalidReference = errors.New("invalid agent reference")

	// ErrUnresolvedReference indicates a Protect index was left unset and no
	// selector could resolve it.
	ErrUnresolvedReference = errors.New("unresolved agent reference")

	// ErrStationaryLeader marks a FollowBehind success caused by a leader
	// with no direction of travel.
	ErrStationaryLeader = errors.New("leader is stationary")

	// ErrAlreadyStarted indicates Start was called on a routine that is not
	// in the none state.
	ErrAlreadyStarted = errors.New("routine already started")

	// ErrInvalidTransition indicates a lifecycle move the table forbids.
	ErrInvalidTransition = errors.New("invalid routine transition")

	// ErrUnknownKind indicates a Spec names no known routine.
	ErrUnknownKind = errors.New("unknown routine kind")

	// ErrNoAgent indicates Act was called without an acting agent.
	ErrNoAgent = errors.New("no acting agent")

	// ErrNoGrid indicates Act was called without a grid to act on.
	ErrNoGrid = errors.New("no grid")
)
