package event_test

import (
	"context"
	"errors"
	"testing"

	domainevent "github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/felixgeelhaar/droid-go/domain/routine"
	infraevent "github.com/felixgeelhaar/droid-go/infrastructure/event"
)

func TestRecorder_Record(t *testing.T) {
	t.Parallel()

	store := newMockEventStore()
	rec := infraevent.NewRecorder(infraevent.NewPublisher(store), "run-7")

	err := rec.Record(context.Background(), domainevent.TypeRunStarted, domainevent.RunStartedPayload{Scenario: "s", GridSize: 4})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	events, _ := store.LoadEvents(context.Background(), "run-7")
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].RunID != "run-7" {
		t.Errorf("RunID = %s, want run-7", events[0].RunID)
	}
	if rec.RunID() != "run-7" {
		t.Errorf("RunID() = %s, want run-7", rec.RunID())
	}
}

func TestRecorder_OnTransition(t *testing.T) {
	t.Parallel()

	store := newMockEventStore()
	rec := infraevent.NewRecorder(infraevent.NewPublisher(store), "run-1")
	rec.SetTick(3)

	rec.OnTransition(routine.Transition{
		Kind:   routine.KindFollowBehind,
		Agent:  "bb8",
		From:   routine.StateRunning,
		To:     routine.StateFailure,
		Reason: "leader out of range",
		Cause:  routine.ErrInvalidReference,
	})

	events, _ := store.LoadEvents(context.Background(), "run-1")
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Type != domainevent.TypeRoutineTransitioned {
		t.Errorf("Type = %s, want %s", events[0].Type, domainevent.TypeRoutineTransitioned)
	}

	var payload domainevent.RoutineTransitionedPayload
	if err := events[0].UnmarshalPayload(&payload); err != nil {
		t.Fatalf("UnmarshalPayload() error = %v", err)
	}
	want := domainevent.RoutineTransitionedPayload{
		Tick:   3,
		Agent:  "bb8",
		Kind:   routine.KindFollowBehind,
		From:   routine.StateRunning,
		To:     routine.StateFailure,
		Reason: "leader out of range",
		Cause:  routine.ErrInvalidReference.Error(),
	}
	if payload != want {
		t.Errorf("payload = %+v, want %+v", payload, want)
	}
}

func TestRecorder_Err(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("store down")
	store := newMockEventStore()
	store.SetError(storeErr)
	rec := infraevent.NewRecorder(infraevent.NewPublisher(store), "run-1")

	rec.OnTransition(routine.Transition{Kind: routine.KindMoveTo, From: routine.StateNone, To: routine.StateRunning})
	rec.OnTransition(routine.Transition{Kind: routine.KindMoveTo, From: routine.StateRunning, To: routine.StateSuccess})

	if !errors.Is(rec.Err(), storeErr) {
		t.Errorf("Err() = %v, want %v", rec.Err(), storeErr)
	}
	if !errors.Is(rec.Close(), storeErr) {
		t.Error("Close() should report the recorded error")
	}
}
