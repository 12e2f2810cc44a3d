// Package routine provides the per-agent behaviour state machine and the
// movement and targeting algorithms that run on top of it.
package routine

// State is the lifecycle position of a routine.
type State string

// Lifecycle states. A routine leaves a terminal state only through a reset.
const (
	StateNone    State = "none"    // Not yet started
	StateRunning State = "running" // Acting every tick
	StateSuccess State = "success" // Terminal success
	StateFailure State = "failure" // Terminal failure
)

// IsTerminal returns true for success and failure.
func (s State) IsTerminal() bool {
	return s == StateSuccess || s == StateFailure
}

// IsValid returns true if the state is one of the four lifecycle states.
func (s State) IsValid() bool {
	switch s {
	case StateNone, StateRunning, StateSuccess, StateFailure:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// AllStates returns every lifecycle state.
func AllStates() []State {
	return []State{StateNone, StateRunning, StateSuccess, StateFailure}
}

// TransitionRules maps states to the states they can transition to.
type TransitionRules map[State][]State

// Transitions defines the allowed lifecycle moves. It is read-only after
// construction.
type Transitions struct {
	allowed map[State][]State
}

// NewTransitionsWith builds a transition table from rules.
func NewTransitionsWith(rules TransitionRules) *Transitions {
	t := &Transitions{allowed: make(map[State][]State, len(rules))}
	for from, to := range rules {
		t.allowed[from] = append(t.allowed[from], to...)
	}
	return t
}

// DefaultTransitions returns the routine lifecycle:
//
//	none → running → success | failure
//
// Every state may return to none through a reset.
func DefaultTransitions() *Transitions {
	return NewTransitionsWith(TransitionRules{
		StateNone:    {StateRunning, StateNone},
		StateRunning: {StateSuccess, StateFailure, StateNone},
		StateSuccess: {StateNone},
		StateFailure: {StateNone},
	})
}

// CanTransition checks if a move from one state to another is allowed.
func (t *Transitions) CanTransition(from, to State) bool {
	for _, s := range t.allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns all states reachable from the given state.
func (t *Transitions) AllowedTransitions(from State) []State {
	return t.allowed[from]
}
