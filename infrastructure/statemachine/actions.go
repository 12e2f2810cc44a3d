package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// recordTransition stores the new state in the context so the guard sees
// it on the next event. Actions receive **Context.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Current = targetOf(event)
}
