package event

import (
	"time"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// Type classifies domain events.
type Type string

// Event types recorded during a simulation run.
const (
	// Run lifecycle events
	TypeRunStarted   Type = "run.started"
	TypeRunCompleted Type = "run.completed"
	TypeRunFailed    Type = "run.failed"

	// Routine events
	TypeRoutineAssigned     Type = "routine.assigned"
	TypeRoutineTransitioned Type = "routine.transitioned"

	// Movement events
	TypeAgentMoved Type = "agent.moved"

	// Scheduler events
	TypeTickCompleted Type = "tick.completed"
)

// Types returns every event type in emission order.
func Types() []Type {
	return []Type{
		TypeRunStarted,
		TypeRoutineAssigned,
		TypeRoutineTransitioned,
		TypeAgentMoved,
		TypeTickCompleted,
		TypeRunCompleted,
		TypeRunFailed,
	}
}

// RunStartedPayload contains data for run.started events.
type RunStartedPayload struct {
	Scenario string   `json:"scenario"`
	GridSize int      `json:"grid_size"`
	Agents   []string `json:"agents"`
	MaxTicks int      `json:"max_ticks,omitempty"`
}

// RunCompletedPayload contains data for run.completed events.
type RunCompletedPayload struct {
	Ticks     int           `json:"ticks"`
	Duration  time.Duration `json:"duration"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Running   int           `json:"running"`
}

// RunFailedPayload contains data for run.failed events.
type RunFailedPayload struct {
	Error    string        `json:"error"`
	Tick     int           `json:"tick"`
	Duration time.Duration `json:"duration"`
}

// RoutineAssignedPayload contains data for routine.assigned events.
type RoutineAssignedPayload struct {
	Agent string       `json:"agent"`
	Index int          `json:"index"`
	Spec  routine.Spec `json:"spec"`
}

// RoutineTransitionedPayload contains data for routine.transitioned events.
type RoutineTransitionedPayload struct {
	Tick   int           `json:"tick"`
	Agent  string        `json:"agent"`
	Kind   routine.Kind  `json:"kind"`
	From   routine.State `json:"from"`
	To     routine.State `json:"to"`
	Reason string        `json:"reason,omitempty"`
	Cause  string        `json:"cause,omitempty"`
}

// AgentMovedPayload contains data for agent.moved events. It is emitted
// only when an agent changes cell.
type AgentMovedPayload struct {
	Tick  int    `json:"tick"`
	Agent string `json:"agent"`
	FromX int    `json:"from_x"`
	FromY int    `json:"from_y"`
	ToX   int    `json:"to_x"`
	ToY   int    `json:"to_y"`
}

// TickCompletedPayload contains data for tick.completed events.
type TickCompletedPayload struct {
	Tick    int `json:"tick"`
	Moved   int `json:"moved"`
	Running int `json:"running"`
}
