package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// TransitionPayload names the state a transition event leads to.
type TransitionPayload struct {
	ToState routine.State
}

// Lifecycle is a routine.Lifecycle driven by a statekit interpreter.
type Lifecycle struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewLifecycle creates and starts a lifecycle on the given machine.
func NewLifecycle(machine *statekit.MachineConfig[*Context], transitions *routine.Transitions) *Lifecycle {
	ctx := NewContext(transitions)
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()
	return &Lifecycle{
		interp: interp,
		ctx:    ctx,
	}
}

// NewFactory builds the statechart once and returns a factory producing a
// fresh lifecycle per routine.
func NewFactory() (routine.LifecycleFactory, error) {
	machine, err := NewRoutineMachine()
	if err != nil {
		return nil, fmt.Errorf("build routine machine: %w", err)
	}
	transitions := routine.DefaultTransitions()
	return func() routine.Lifecycle {
		return NewLifecycle(machine, transitions)
	}, nil
}

// State returns the current state.
func (l *Lifecycle) State() routine.State {
	return StateFromMachine(l.interp.State().Value)
}

// Transition sends the event leading to the target state. A reset while
// already in none is a no-op. The reason is carried by routine events,
// not by the statechart.
func (l *Lifecycle) Transition(to routine.State, _ string) error {
	from := l.State()
	if from == routine.StateNone && to == routine.StateNone {
		return nil
	}
	if !l.ctx.Transitions.CanTransition(from, to) {
		return fmt.Errorf("%w: %s to %s", routine.ErrInvalidTransition, from, to)
	}

	l.interp.Send(statekit.Event{
		Type:    EventForTransition(to),
		Payload: TransitionPayload{ToState: to},
	})

	if got := l.State(); got != to {
		return fmt.Errorf("%w: %s to %s rejected by statechart (in %s)", routine.ErrInvalidTransition, from, to, got)
	}
	return nil
}

var _ routine.Lifecycle = (*Lifecycle)(nil)
