package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// guardCanTransition checks the move against the routine transition table.
// statekit passes the *Context by value.
func guardCanTransition(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.Transitions == nil {
		return false
	}
	return ctx.Transitions.CanTransition(ctx.Current, targetOf(event))
}

// targetOf returns the state an event leads to, preferring the payload.
func targetOf(event statekit.Event) routine.State {
	if payload, ok := event.Payload.(TransitionPayload); ok && payload.ToState != "" {
		return payload.ToState
	}
	return stateFromEventType(event.Type)
}

// stateFromEventType derives the target state from an event type.
func stateFromEventType(eventType statekit.EventType) routine.State {
	switch eventType {
	case EventStart:
		return routine.StateRunning
	case EventSucceed:
		return routine.StateSuccess
	case EventFail:
		return routine.StateFailure
	case EventReset:
		return routine.StateNone
	default:
		return routine.State(eventType)
	}
}
