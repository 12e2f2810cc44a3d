package routine

import "fmt"

// Lifecycle owns a routine's state and enforces its transition table.
type Lifecycle interface {
	// State returns the current lifecycle state.
	State() State

	// Transition moves to the target state, or returns ErrInvalidTransition.
	Transition(to State, reason string) error
}

// LifecycleFactory creates a fresh lifecycle in StateNone.
type LifecycleFactory func() Lifecycle

// tableLifecycle is the default Lifecycle backed by a Transitions table.
type tableLifecycle struct {
	state       State
	transitions *Transitions
}

// NewLifecycle returns a table-driven lifecycle using DefaultTransitions.
func NewLifecycle() Lifecycle {
	return &tableLifecycle{
		state:       StateNone,
		transitions: DefaultTransitions(),
	}
}

func (l *tableLifecycle) State() State {
	return l.state
}

func (l *tableLifecycle) Transition(to State, _ string) error {
	if !l.transitions.CanTransition(l.state, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, l.state, to)
	}
	l.state = to
	return nil
}
