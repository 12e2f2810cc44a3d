// Package report defines the post-hoc record of a simulation run and the
// store contract its backends implement.
package report

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// Status describes how a run ended.
type Status string

const (
	// StatusCompleted means every assigned routine reached a terminal state.
	StatusCompleted Status = "completed"

	// StatusExhausted means the tick limit was hit with routines still running.
	StatusExhausted Status = "exhausted"

	// StatusCancelled means the run's context was cancelled.
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusCompleted, StatusExhausted, StatusCancelled:
		return true
	}
	return false
}

// AgentOutcome is the final state of one agent and its routine.
type AgentOutcome struct {
	Name    string        `json:"name"`
	Kind    routine.Kind  `json:"kind,omitempty"`
	Outcome routine.State `json:"outcome"`
	Reason  string        `json:"reason,omitempty"`
	Cause   string        `json:"cause,omitempty"`
	X       int           `json:"x"`
	Y       int           `json:"y"`
}

// Report summarises one simulation run.
type Report struct {
	RunID      string         `json:"run_id"`
	Scenario   string         `json:"scenario"`
	Status     Status         `json:"status"`
	GridSize   int            `json:"grid_size"`
	Ticks      int            `json:"ticks"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Agents     []AgentOutcome `json:"agents"`
}

// Duration returns the wall-clock time the run took.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts tallies agent outcomes. Idle agents are not counted.
func (r *Report) Counts() (succeeded, failed, running int) {
	for _, a := range r.Agents {
		switch a.Outcome {
		case routine.StateSuccess:
			succeeded++
		case routine.StateFailure:
			failed++
		case routine.StateRunning:
			running++
		}
	}
	return succeeded, failed, running
}

// Validate checks the fields every backend relies on.
func (r *Report) Validate() error {
	if r == nil || r.RunID == "" {
		return ErrInvalidRunID
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}
	return nil
}
