package application

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// Replay rebuilds run histories from the event log. Routines themselves are
// never restored; the history is a post-hoc record.
type Replay struct {
	eventStore event.Store
}

// NewReplay creates a new replay engine.
func NewReplay(eventStore event.Store) *Replay {
	return &Replay{
		eventStore: eventStore,
	}
}

// RunHistory is the reconstructed record of one run.
type RunHistory struct {
	RunID      string          `json:"run_id"`
	Scenario   string          `json:"scenario,omitempty"`
	GridSize   int             `json:"grid_size"`
	MaxTicks   int             `json:"max_ticks"`
	Ticks      int             `json:"ticks"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
	Finished   bool            `json:"finished"`
	Error      string          `json:"error,omitempty"`
	Agents     []*AgentHistory `json:"agents"`
	Events     int             `json:"events"`
}

// Agent returns the history of the named agent.
func (h *RunHistory) Agent(name string) (*AgentHistory, bool) {
	for _, a := range h.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// AgentHistory is one agent's timeline.
type AgentHistory struct {
	Name        string            `json:"name"`
	Spec        routine.Spec      `json:"spec"`
	State       routine.State     `json:"state"`
	Transitions []TransitionEntry `json:"transitions,omitempty"`
	Path        []Step            `json:"path,omitempty"`
}

// TransitionEntry is one recorded lifecycle move.
type TransitionEntry struct {
	Tick      int           `json:"tick"`
	Kind      routine.Kind  `json:"kind"`
	From      routine.State `json:"from"`
	To        routine.State `json:"to"`
	Reason    string        `json:"reason,omitempty"`
	Cause     string        `json:"cause,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Step is one recorded cell change.
type Step struct {
	Tick int `json:"tick"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

// Reconstruct rebuilds a run's history from its event log.
func (r *Replay) Reconstruct(ctx context.Context, runID string) (*RunHistory, error) {
	events, err := r.eventStore.LoadEvents(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return applyEvents(runID, events)
}

// ReconstructFrom rebuilds a run's history from a starting sequence.
func (r *Replay) ReconstructFrom(ctx context.Context, runID string, fromSeq uint64) (*RunHistory, error) {
	events, err := r.eventStore.LoadEventsFrom(ctx, runID, fromSeq)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return applyEvents(runID, events)
}

// applyEvents folds a sequence of events into a history.
func applyEvents(runID string, events []event.Event) (*RunHistory, error) {
	if len(events) == 0 {
		return nil, event.ErrRunNotFound
	}

	h := &RunHistory{RunID: runID, Events: len(events)}
	index := make(map[string]*AgentHistory)
	agent := func(name string) *AgentHistory {
		if a, ok := index[name]; ok {
			return a
		}
		a := &AgentHistory{Name: name, State: routine.StateNone}
		index[name] = a
		h.Agents = append(h.Agents, a)
		return a
	}

	for _, e := range events {
		switch e.Type {
		case event.TypeRunStarted:
			var payload event.RunStartedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal run.started: %w", err)
			}
			h.Scenario = payload.Scenario
			h.GridSize = payload.GridSize
			h.MaxTicks = payload.MaxTicks
			h.StartedAt = e.Timestamp
			for _, name := range payload.Agents {
				agent(name)
			}

		case event.TypeRoutineAssigned:
			var payload event.RoutineAssignedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal routine.assigned: %w", err)
			}
			agent(payload.Agent).Spec = payload.Spec

		case event.TypeRoutineTransitioned:
			var payload event.RoutineTransitionedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal routine.transitioned: %w", err)
			}
			a := agent(payload.Agent)
			a.State = payload.To
			a.Transitions = append(a.Transitions, TransitionEntry{
				Tick:      payload.Tick,
				Kind:      payload.Kind,
				From:      payload.From,
				To:        payload.To,
				Reason:    payload.Reason,
				Cause:     payload.Cause,
				Timestamp: e.Timestamp,
			})

		case event.TypeAgentMoved:
			var payload event.AgentMovedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal agent.moved: %w", err)
			}
			a := agent(payload.Agent)
			a.Path = append(a.Path, Step{Tick: payload.Tick, X: payload.ToX, Y: payload.ToY})

		case event.TypeTickCompleted:
			var payload event.TickCompletedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal tick.completed: %w", err)
			}
			h.Ticks = payload.Tick

		case event.TypeRunCompleted:
			var payload event.RunCompletedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal run.completed: %w", err)
			}
			h.Ticks = payload.Ticks
			h.Finished = true
			h.FinishedAt = e.Timestamp

		case event.TypeRunFailed:
			var payload event.RunFailedPayload
			if err := e.UnmarshalPayload(&payload); err != nil {
				return nil, fmt.Errorf("unmarshal run.failed: %w", err)
			}
			h.Ticks = payload.Tick
			h.Error = payload.Error
			h.Finished = true
			h.FinishedAt = e.Timestamp
		}
	}

	return h, nil
}

// EventIterator allows iterating over events one at a time.
type EventIterator struct {
	events []event.Event
	index  int
}

// NewEventIterator creates an iterator over a run's events.
func (r *Replay) NewEventIterator(ctx context.Context, runID string) (*EventIterator, error) {
	events, err := r.eventStore.LoadEvents(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return &EventIterator{events: events}, nil
}

// Next returns the next event, or nil if done.
func (it *EventIterator) Next() *event.Event {
	if it.index >= len(it.events) {
		return nil
	}
	e := &it.events[it.index]
	it.index++
	return e
}

// NextTick returns the events up to and including the next tick.completed
// event, or nil when the log is exhausted.
func (it *EventIterator) NextTick() []event.Event {
	start := it.index
	for it.index < len(it.events) {
		e := it.events[it.index]
		it.index++
		if e.Type == event.TypeTickCompleted {
			break
		}
	}
	if start == it.index {
		return nil
	}
	return it.events[start:it.index]
}

// Reset returns to the beginning.
func (it *EventIterator) Reset() {
	it.index = 0
}

// Len returns the total number of events.
func (it *EventIterator) Len() int {
	return len(it.events)
}
