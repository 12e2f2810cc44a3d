// Package statemachine provides the statekit integration for routine lifecycles.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// Context carries lifecycle state through the state machine.
type Context struct {
	Current     routine.State
	Transitions *routine.Transitions
}

// NewContext creates a new machine context in StateNone.
func NewContext(transitions *routine.Transitions) *Context {
	if transitions == nil {
		transitions = routine.DefaultTransitions()
	}
	return &Context{
		Current:     routine.StateNone,
		Transitions: transitions,
	}
}

// State IDs as StateID type for statekit.
const (
	stateNone    statekit.StateID = statekit.StateID(routine.StateNone)
	stateRunning statekit.StateID = statekit.StateID(routine.StateRunning)
	stateSuccess statekit.StateID = statekit.StateID(routine.StateSuccess)
	stateFailure statekit.StateID = statekit.StateID(routine.StateFailure)
)

// Event types.
const (
	EventStart   statekit.EventType = "START"
	EventSucceed statekit.EventType = "SUCCEED"
	EventFail    statekit.EventType = "FAIL"
	EventReset   statekit.EventType = "RESET"
)

const machineID = "routine"

// NewRoutineMachine creates the routine lifecycle statechart. Terminal
// states are not final: a reset always leads back to none.
func NewRoutineMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context](machineID).
		WithInitial(stateNone).
		WithContext(&Context{}).
		// Register actions
		WithAction("recordTransition", recordTransition).
		// Register guards
		WithGuard("canTransition", guardCanTransition).
		// Define states
		State(stateNone).
		On(EventStart).Target(stateRunning).Guard("canTransition").Do("recordTransition").
		Done().
		State(stateRunning).
		On(EventSucceed).Target(stateSuccess).Guard("canTransition").Do("recordTransition").
		On(EventFail).Target(stateFailure).Guard("canTransition").Do("recordTransition").
		On(EventReset).Target(stateNone).Guard("canTransition").Do("recordTransition").
		Done().
		State(stateSuccess).
		On(EventReset).Target(stateNone).Guard("canTransition").Do("recordTransition").
		Done().
		State(stateFailure).
		On(EventReset).Target(stateNone).Guard("canTransition").Do("recordTransition").
		Done().
		Build()
}

// EventForTransition returns the event type for a state transition.
func EventForTransition(to routine.State) statekit.EventType {
	switch to {
	case routine.StateRunning:
		return EventStart
	case routine.StateSuccess:
		return EventSucceed
	case routine.StateFailure:
		return EventFail
	case routine.StateNone:
		return EventReset
	default:
		return statekit.EventType(to)
	}
}

// StateFromMachine converts the machine state ID to a routine State.
func StateFromMachine(stateID statekit.StateID) routine.State {
	return routine.State(stateID)
}
