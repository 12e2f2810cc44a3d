package event_test

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/felixgeelhaar/droid-go/domain/routine"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	t.Run("creates event with valid payload", func(t *testing.T) {
		t.Parallel()

		payload := event.RunStartedPayload{
			Scenario: "patrol",
			GridSize: 8,
			Agents:   []string{"r2", "bb8"},
		}

		e, err := event.NewEvent("run-123", event.TypeRunStarted, payload)
		if err != nil {
			t.Fatalf("NewEvent() error = %v", err)
		}

		if e.RunID != "run-123" {
			t.Errorf("NewEvent() RunID = %s, want run-123", e.RunID)
		}
		if e.Type != event.TypeRunStarted {
			t.Errorf("NewEvent() Type = %s, want run.started", e.Type)
		}
		if e.Timestamp.IsZero() {
			t.Error("NewEvent() Timestamp should not be zero")
		}
		if e.Version != 1 {
			t.Errorf("NewEvent() Version = %d, want 1", e.Version)
		}
		if e.ID != "" || e.Sequence != 0 {
			t.Errorf("NewEvent() ID/Sequence = %q/%d, want unassigned", e.ID, e.Sequence)
		}
	})

	t.Run("returns invalid event for unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		_, err := event.NewEvent("run-123", event.TypeRunStarted, make(chan int))
		if !errors.Is(err, event.ErrInvalidEvent) {
			t.Errorf("NewEvent() error = %v, want ErrInvalidEvent", err)
		}
	})

	t.Run("handles nil payload", func(t *testing.T) {
		t.Parallel()

		e, err := event.NewEvent("run-123", event.TypeRunStarted, nil)
		if err != nil {
			t.Fatalf("NewEvent() error = %v", err)
		}
		if string(e.Payload) != "null" {
			t.Errorf("NewEvent() Payload = %s, want null", e.Payload)
		}
	})
}

func TestEvent_UnmarshalPayload(t *testing.T) {
	t.Parallel()

	payload := event.RoutineTransitionedPayload{
		Tick:   4,
		Agent:  "r2",
		Kind:   routine.KindFollowBehind,
		From:   routine.StateRunning,
		To:     routine.StateSuccess,
		Reason: "leader stationary",
		Cause:  routine.ErrStationaryLeader.Error(),
	}

	e, err := event.NewEvent("run-1", event.TypeRoutineTransitioned, payload)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}

	var decoded event.RoutineTransitionedPayload
	if err := e.UnmarshalPayload(&decoded); err != nil {
		t.Fatalf("UnmarshalPayload() error = %v", err)
	}
	if decoded != payload {
		t.Errorf("UnmarshalPayload() = %+v, want %+v", decoded, payload)
	}
}

func TestEvent_UnmarshalPayloadSpec(t *testing.T) {
	t.Parallel()

	payload := event.RoutineAssignedPayload{
		Agent: "guard",
		Index: 2,
		Spec:  routine.Spec{Kind: routine.KindProtect, Protected: 0, Threat: 1},
	}

	e, err := event.NewEvent("run-1", event.TypeRoutineAssigned, payload)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}

	var decoded event.RoutineAssignedPayload
	if err := e.UnmarshalPayload(&decoded); err != nil {
		t.Fatalf("UnmarshalPayload() error = %v", err)
	}
	if decoded.Spec.Kind != routine.KindProtect || decoded.Spec.Threat != 1 {
		t.Errorf("UnmarshalPayload() Spec = %+v, want protect threat=1", decoded.Spec)
	}
}

func TestEvent_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   event.Event
		wantErr bool
	}{
		{"valid", event.Event{RunID: "r", Type: event.TypeTickCompleted}, false},
		{"missing run id", event.Event{Type: event.TypeTickCompleted}, true},
		{"missing type", event.Event{RunID: "r"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, event.ErrInvalidEvent) {
				t.Errorf("Validate() error = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestEventTypes(t *testing.T) {
	t.Parallel()

	want := map[event.Type]string{
		event.TypeRunStarted:          "run.started",
		event.TypeRunCompleted:        "run.completed",
		event.TypeRunFailed:           "run.failed",
		event.TypeRoutineAssigned:     "routine.assigned",
		event.TypeRoutineTransitioned: "routine.transitioned",
		event.TypeAgentMoved:          "agent.moved",
		event.TypeTickCompleted:       "tick.completed",
	}

	types := event.Types()
	if len(types) != len(want) {
		t.Fatalf("len(Types()) = %d, want %d", len(types), len(want))
	}
	for _, typ := range types {
		if want[typ] != string(typ) {
			t.Errorf("Type %q not expected", typ)
		}
	}
}

func TestRunCompletedPayload_Duration(t *testing.T) {
	t.Parallel()

	payload := event.RunCompletedPayload{Ticks: 12, Duration: 1500 * time.Millisecond, Succeeded: 2}
	e, err := event.NewEvent("run-1", event.TypeRunCompleted, payload)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}

	var decoded event.RunCompletedPayload
	if err := e.UnmarshalPayload(&decoded); err != nil {
		t.Fatalf("UnmarshalPayload() error = %v", err)
	}
	if decoded.Duration != payload.Duration {
		t.Errorf("Duration = %v, want %v", decoded.Duration, payload.Duration)
	}
}

func TestDomainErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrRunNotFound", event.ErrRunNotFound, "run not found in event store"},
		{"ErrInvalidEvent", event.ErrInvalidEvent, "invalid event"},
		{"ErrConnectionFailed", event.ErrConnectionFailed, "event store connection failed"},
		{"ErrStoreClosed", event.ErrStoreClosed, "event store closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.err.Error() != tt.msg {
				t.Errorf("%s.Error() = %s, want %s", tt.name, tt.err.Error(), tt.msg)
			}
		})
	}
}
