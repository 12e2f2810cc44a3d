package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/felixgeelhaar/droid-go/infrastructure/storage/memory"
)

func newEvent(runID string, typ event.Type) event.Event {
	return event.Event{RunID: runID, Type: typ, Timestamp: time.Now()}
}

func TestNewEventStore(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for new store", store.Len())
	}
}

func TestEventStore_Append(t *testing.T) {
	t.Parallel()

	t.Run("assigns ids and per-run sequences", func(t *testing.T) {
		t.Parallel()

		store := memory.NewEventStore()
		ctx := context.Background()

		err := store.Append(ctx,
			newEvent("run-1", event.TypeRunStarted),
			newEvent("run-2", event.TypeRunStarted),
			newEvent("run-1", event.TypeTickCompleted),
		)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		events, _ := store.LoadEvents(ctx, "run-1")
		if len(events) != 2 {
			t.Fatalf("len(LoadEvents(run-1)) = %d, want 2", len(events))
		}
		for i, e := range events {
			if e.Sequence != uint64(i+1) {
				t.Errorf("events[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
			}
			if e.ID == "" {
				t.Errorf("events[%d].ID should be assigned", i)
			}
		}

		other, _ := store.LoadEvents(ctx, "run-2")
		if len(other) != 1 || other[0].Sequence != 1 {
			t.Errorf("run-2 events = %+v, want one event with sequence 1", other)
		}
	})

	t.Run("keeps caller id", func(t *testing.T) {
		t.Parallel()

		store := memory.NewEventStore()
		e := newEvent("run-1", event.TypeRunStarted)
		e.ID = "fixed"
		_ = store.Append(context.Background(), e)

		events, _ := store.LoadEvents(context.Background(), "run-1")
		if events[0].ID != "fixed" {
			t.Errorf("ID = %s, want fixed", events[0].ID)
		}
	})

	t.Run("rejects batch with invalid event", func(t *testing.T) {
		t.Parallel()

		store := memory.NewEventStore()
		err := store.Append(context.Background(),
			newEvent("run-1", event.TypeRunStarted),
			event.Event{RunID: "run-1"},
		)
		if !errors.Is(err, event.ErrInvalidEvent) {
			t.Errorf("Append() error = %v, want ErrInvalidEvent", err)
		}
		if store.Len() != 0 {
			t.Errorf("Len() = %d, want 0 after rejected batch", store.Len())
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		t.Parallel()

		store := memory.NewEventStore()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := store.Append(ctx, newEvent("run-1", event.TypeRunStarted)); !errors.Is(err, context.Canceled) {
			t.Errorf("Append() error = %v, want context.Canceled", err)
		}
	})
}

func TestEventStore_LoadEventsFrom(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = store.Append(ctx, newEvent("run-1", event.TypeTickCompleted))
	}

	events, err := store.LoadEventsFrom(ctx, "run-1", 3)
	if err != nil {
		t.Fatalf("LoadEventsFrom() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(LoadEventsFrom(3)) = %d, want 3", len(events))
	}
	if events[0].Sequence != 3 {
		t.Errorf("first Sequence = %d, want 3", events[0].Sequence)
	}

	missing, err := store.LoadEvents(ctx, "nope")
	if err != nil || len(missing) != 0 {
		t.Errorf("LoadEvents(unknown) = %v, %v, want empty", missing, err)
	}
}

func TestEventStore_Subscribe(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := store.Subscribe(ctx, "run-1")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	_ = store.Append(context.Background(), newEvent("run-1", event.TypeRunStarted))
	_ = store.Append(context.Background(), newEvent("run-2", event.TypeRunStarted))

	select {
	case e := <-ch:
		if e.RunID != "run-1" || e.Sequence != 1 {
			t.Errorf("received %+v, want run-1 sequence 1", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestEventStore_Query(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	ctx := context.Background()
	_ = store.Append(ctx,
		newEvent("run-1", event.TypeRunStarted),
		newEvent("run-1", event.TypeRoutineTransitioned),
		newEvent("run-1", event.TypeTickCompleted),
		newEvent("run-1", event.TypeRoutineTransitioned),
		newEvent("run-1", event.TypeRunCompleted),
	)

	tests := []struct {
		name string
		opts event.QueryOptions
		want int
	}{
		{"all", event.QueryOptions{}, 5},
		{"by type", event.QueryOptions{Types: []event.Type{event.TypeRoutineTransitioned}}, 2},
		{"limit", event.QueryOptions{Limit: 2}, 2},
		{"offset", event.QueryOptions{Offset: 3}, 2},
		{"offset past end", event.QueryOptions{Offset: 10}, 0},
		{"future window", event.QueryOptions{FromTime: time.Now().Add(time.Hour).Unix()}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := store.Query(ctx, "run-1", tt.opts)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len(Query()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestEventStore_CountListDelete(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	ctx := context.Background()
	_ = store.Append(ctx,
		newEvent("run-b", event.TypeRunStarted),
		newEvent("run-a", event.TypeRunStarted),
		newEvent("run-a", event.TypeRunCompleted),
	)

	if n, _ := store.CountEvents(ctx, "run-a"); n != 2 {
		t.Errorf("CountEvents(run-a) = %d, want 2", n)
	}

	runs, _ := store.ListRuns(ctx)
	if len(runs) != 2 || runs[0] != "run-a" || runs[1] != "run-b" {
		t.Errorf("ListRuns() = %v, want [run-a run-b]", runs)
	}

	if err := store.DeleteRun(ctx, "run-a"); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}
	if n, _ := store.CountEvents(ctx, "run-a"); n != 0 {
		t.Errorf("CountEvents(run-a) after delete = %d, want 0", n)
	}
	if err := store.DeleteRun(ctx, "run-a"); !errors.Is(err, event.ErrRunNotFound) {
		t.Errorf("DeleteRun() twice error = %v, want ErrRunNotFound", err)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}
