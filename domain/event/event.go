// Package event defines the run event log: the typed records a simulation
// emits while it ticks, and the store contract used to persist and replay them.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is one entry in a run's event stream.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// RunID is the simulation run this event belongs to.
	RunID string `json:"run_id"`

	// Type classifies the event.
	Type Type `json:"type"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Payload contains the event-specific data.
	Payload json.RawMessage `json:"payload"`

	// Sequence is the ordering number within the run's event stream.
	Sequence uint64 `json:"sequence"`

	// Version is the event schema version for forward compatibility.
	Version int `json:"version,omitempty"`
}

// NewEvent creates an event with the given type and JSON-encoded payload.
// ID and Sequence are assigned by the store on append.
func NewEvent(runID string, eventType Type, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	return Event{
		RunID:     runID,
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   data,
		Version:   1,
	}, nil
}

// UnmarshalPayload decodes the event payload into the given value.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Validate reports whether the event can be appended to a store.
func (e *Event) Validate() error {
	if e.RunID == "" {
		return fmt.Errorf("%w: missing run id", ErrInvalidEvent)
	}
	if e.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidEvent)
	}
	return nil
}
