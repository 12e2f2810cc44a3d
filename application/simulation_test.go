package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/felixgeelhaar/droid-go/domain/grid"
	"github.com/felixgeelhaar/droid-go/domain/report"
	"github.com/felixgeelhaar/droid-go/domain/routine"
	infraevent "github.com/felixgeelhaar/droid-go/infrastructure/event"
	"github.com/felixgeelhaar/droid-go/infrastructure/resilience"
	"github.com/felixgeelhaar/droid-go/infrastructure/statemachine"
	"github.com/felixgeelhaar/droid-go/infrastructure/storage/memory"
	"github.com/felixgeelhaar/droid-go/infrastructure/telemetry"
	"github.com/felixgeelhaar/droid-go/infrastructure/world"
)

// Test helpers

type agentAt struct {
	name string
	x, y int
}

func newTestWorld(t *testing.T, size int, agents ...agentAt) *world.World {
	t.Helper()

	w, err := world.New(size)
	if err != nil {
		t.Fatalf("world.New() error = %v", err)
	}
	for _, a := range agents {
		if _, err := w.Spawn(a.name, a.x, a.y); err != nil {
			t.Fatalf("Spawn(%s) error = %v", a.name, err)
		}
	}
	return w
}

func newTestSimulation(t *testing.T, w *world.World, opts ...Option) *Simulation {
	t.Helper()

	sim, err := New(append([]Option{WithWorld(w), WithScenario("test")}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return sim
}

type transitionLog struct {
	mu   sync.Mutex
	seen []routine.Transition
}

func (l *transitionLog) OnTransition(t routine.Transition) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, t)
}

type failingReportStore struct {
	*memory.ReportStore
	err error
}

func (s *failingReportStore) Save(context.Context, *report.Report) error {
	return s.err
}

// Construction

func TestNewSimulation_RequiresWorld(t *testing.T) {
	t.Parallel()

	if _, err := NewSimulation(SimulationConfig{}); !errors.Is(err, ErrNoWorld) {
		t.Errorf("NewSimulation() error = %v, want ErrNoWorld", err)
	}
}

func TestNewSimulation_Defaults(t *testing.T) {
	t.Parallel()

	sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}))

	if sim.RunID() == "" {
		t.Error("RunID() should be generated")
	}
	if sim.config.MaxTicks != 1000 {
		t.Errorf("MaxTicks = %d, want 1000", sim.config.MaxTicks)
	}
	if sim.Ticks() != 0 {
		t.Errorf("Ticks() = %d, want 0", sim.Ticks())
	}
	if !sim.Done() {
		t.Error("Done() should be true with no routines")
	}
}

// Assignment

func TestSimulation_Assign(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		index   int
		spec    routine.Spec
		wantErr error
	}{
		{"move to", 0, routine.Spec{Kind: routine.KindMoveTo, X: 2, Y: 2}, nil},
		{"unknown kind", 0, routine.Spec{Kind: "teleport"}, routine.ErrUnknownKind},
		{"index out of range", 3, routine.Spec{Kind: routine.KindSpiralScan}, grid.ErrIndexOutOfRange},
		{"negative index", -1, routine.Spec{Kind: routine.KindSpiralScan}, grid.ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}))
			err := sim.Assign(tt.index, tt.spec)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Assign() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				r, ok := sim.Routine(tt.index)
				if !ok || r.Kind() != tt.spec.Kind {
					t.Errorf("Routine(%d) = %v, %v; want %s", tt.index, r, ok, tt.spec.Kind)
				}
				if r.State() != routine.StateNone {
					t.Errorf("State() = %s, want none before Start", r.State())
				}
			}
		})
	}
}

func TestSimulation_AssignAfterStartStartsRoutine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := newTestSimulation(t, newTestWorld(t, 6, agentAt{"r2", 1, 1}))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 5, Y: 1}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if err := sim.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	old, _ := sim.Routine(0)

	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 1, Y: 3}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	if old.State() != routine.StateNone {
		t.Errorf("replaced routine State() = %s, want none", old.State())
	}
	r, _ := sim.Routine(0)
	if !r.IsRunning() {
		t.Errorf("new routine State() = %s, want running", r.State())
	}
}

// Lifecycle

func TestSimulation_TickBeforeStart(t *testing.T) {
	t.Parallel()

	sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}))
	if _, err := sim.Tick(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Tick() error = %v, want ErrNotStarted", err)
	}
	if _, err := sim.Finish(context.Background(), nil); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Finish() error = %v, want ErrNotStarted", err)
	}
}

func TestSimulation_StartTwice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}))
	if err := sim.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := sim.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestSimulation_FinishedRejectsWork(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}))
	if _, err := sim.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := sim.Tick(ctx); !errors.Is(err, ErrFinished) {
		t.Errorf("Tick() error = %v, want ErrFinished", err)
	}
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindSpiralScan}); !errors.Is(err, ErrFinished) {
		t.Errorf("Assign() error = %v, want ErrFinished", err)
	}
	if _, err := sim.Run(ctx); !errors.Is(err, ErrFinished) {
		t.Errorf("Run() error = %v, want ErrFinished", err)
	}
}

// Running

func TestSimulation_RunMoveTo(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t, 8, agentAt{"r2", 1, 1}, agentAt{"bb8", 8, 8})
	sim := newTestSimulation(t, w)
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 4, Y: 1}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rep, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rep.Status != report.StatusCompleted {
		t.Errorf("Status = %s, want completed", rep.Status)
	}
	if rep.Ticks != 3 {
		t.Errorf("Ticks = %d, want 3", rep.Ticks)
	}
	if len(rep.Agents) != 2 {
		t.Fatalf("len(Agents) = %d, want 2", len(rep.Agents))
	}

	r2 := rep.Agents[0]
	if r2.Outcome != routine.StateSuccess || r2.X != 4 || r2.Y != 1 {
		t.Errorf("r2 outcome = %+v, want success at (4,1)", r2)
	}
	if idle := rep.Agents[1]; idle.Outcome != routine.StateNone || idle.Kind != "" {
		t.Errorf("bb8 outcome = %+v, want idle", idle)
	}
	if succeeded, failed, running := rep.Counts(); succeeded != 1 || failed != 0 || running != 0 {
		t.Errorf("Counts() = %d/%d/%d, want 1/0/0", succeeded, failed, running)
	}
}

func TestSimulation_TickReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	w := newTestWorld(t, 8, agentAt{"r2", 1, 1})
	sim := newTestSimulation(t, w)
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 3, Y: 3}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if err := sim.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	first, err := sim.Tick(ctx)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if first != (TickReport{Tick: 1, Moved: 1, Running: 1}) {
		t.Errorf("Tick() = %+v, want {1 1 1}", first)
	}

	second, err := sim.Tick(ctx)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if second != (TickReport{Tick: 2, Moved: 1, Running: 0}) {
		t.Errorf("Tick() = %+v, want {2 1 0}", second)
	}
	if a, _ := w.Agent(0); a.X != 3 || a.Y != 3 {
		t.Errorf("agent at (%d,%d), want (3,3)", a.X, a.Y)
	}

	// Terminal routines do not act.
	third, err := sim.Tick(ctx)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if third.Moved != 0 || third.Running != 0 {
		t.Errorf("Tick() = %+v, want no movement", third)
	}
}

func TestSimulation_Exhausted(t *testing.T) {
	t.Parallel()

	sim := newTestSimulation(t, newTestWorld(t, 10, agentAt{"r2", 1, 1}), WithMaxTicks(2))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 10, Y: 10}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rep, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Status != report.StatusExhausted {
		t.Errorf("Status = %s, want exhausted", rep.Status)
	}
	if rep.Ticks != 2 {
		t.Errorf("Ticks = %d, want 2", rep.Ticks)
	}
	if _, _, running := rep.Counts(); running != 1 {
		t.Errorf("running = %d, want 1", running)
	}
}

func TestSimulation_KeepRunning(t *testing.T) {
	t.Parallel()

	sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}),
		WithMaxTicks(5), WithKeepRunning(true))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 2, Y: 1}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rep, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Ticks != 5 {
		t.Errorf("Ticks = %d, want 5", rep.Ticks)
	}
	if rep.Status != report.StatusCompleted {
		t.Errorf("Status = %s, want completed", rep.Status)
	}
}

func TestSimulation_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports := memory.NewReportStore()
	sim := newTestSimulation(t, newTestWorld(t, 6, agentAt{"r2", 1, 1}), WithReportStore(reports))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindSpiralScan}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rep, err := sim.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if rep.Status != report.StatusCancelled {
		t.Errorf("Status = %s, want cancelled", rep.Status)
	}

	// The report is persisted even though the run was cancelled.
	if _, err := reports.Get(context.Background(), sim.RunID()); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

func TestSimulation_FollowBehindStationaryLeader(t *testing.T) {
	t.Parallel()

	sim := newTestSimulation(t, newTestWorld(t, 8, agentAt{"leader", 4, 4}, agentAt{"follower", 1, 1}))
	if err := sim.Assign(1, routine.Spec{Kind: routine.KindFollowBehind, Leader: 1}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rep, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	follower := rep.Agents[1]
	if follower.Outcome != routine.StateSuccess {
		t.Errorf("Outcome = %s, want success", follower.Outcome)
	}
	if follower.Cause != routine.ErrStationaryLeader.Error() {
		t.Errorf("Cause = %q, want %q", follower.Cause, routine.ErrStationaryLeader.Error())
	}
	if rep.Ticks != 1 {
		t.Errorf("Ticks = %d, want 1", rep.Ticks)
	}
}

func TestSimulation_FollowBehindInvalidLeader(t *testing.T) {
	t.Parallel()

	sim := newTestSimulation(t, newTestWorld(t, 8, agentAt{"follower", 1, 1}))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindFollowBehind, Leader: 5}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rep, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := rep.Agents[0].Outcome; got != routine.StateFailure {
		t.Errorf("Outcome = %s, want failure", got)
	}
	if rep.Status != report.StatusCompleted {
		t.Errorf("Status = %s, want completed", rep.Status)
	}
}

func TestSimulation_SpiralScanKeepsSingleStep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := newTestSimulation(t, newTestWorld(t, 5, agentAt{"scout", 1, 1}), WithMaxTicks(500))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindSpiralScan}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if err := sim.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for !sim.Done() && sim.Ticks() < 500 {
		if _, err := sim.Tick(ctx); err != nil {
			t.Fatalf("Tick() error = %v at tick %d", err, sim.Ticks())
		}
	}
	if !sim.Done() {
		t.Fatal("spiral scan did not finish within 500 ticks")
	}
	r, _ := sim.Routine(0)
	if !r.IsSuccess() {
		t.Errorf("State() = %s, want success", r.State())
	}
}

func TestSimulation_ProtectWithNearestSelector(t *testing.T) {
	t.Parallel()

	w := newTestWorld(t, 8,
		agentAt{"guard", 1, 1},
		agentAt{"vip", 3, 1},
		agentAt{"raider", 7, 1},
	)
	sim := newTestSimulation(t, w, WithSelector(NearestSelector{}))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindProtect, Protected: routine.Unset, Threat: routine.Unset}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rep, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	guard := rep.Agents[0]
	if guard.Outcome != routine.StateSuccess {
		t.Fatalf("Outcome = %s (%s), want success", guard.Outcome, guard.Reason)
	}
	if guard.X != 5 || guard.Y != 1 {
		t.Errorf("guard at (%d,%d), want midpoint (5,1)", guard.X, guard.Y)
	}
}

func TestSimulation_ProtectWithoutSelectorFails(t *testing.T) {
	t.Parallel()

	sim := newTestSimulation(t, newTestWorld(t, 8, agentAt{"guard", 1, 1}, agentAt{"vip", 3, 1}))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindProtect, Protected: routine.Unset, Threat: routine.Unset}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rep, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := rep.Agents[0].Outcome; got != routine.StateFailure {
		t.Errorf("Outcome = %s, want failure", got)
	}
}

func TestSimulation_Reset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sim := newTestSimulation(t, newTestWorld(t, 8, agentAt{"r2", 1, 1}))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 8, Y: 8}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if err := sim.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := sim.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	if err := sim.Reset(0); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	r, _ := sim.Routine(0)
	if r.State() != routine.StateNone {
		t.Errorf("State() = %s, want none", r.State())
	}
	if !sim.Done() {
		t.Error("Done() should be true once the only routine is reset")
	}

	if err := sim.Reset(3); !errors.Is(err, grid.ErrIndexOutOfRange) {
		t.Errorf("Reset(3) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestSimulation_ResetIdleAgent(t *testing.T) {
	t.Parallel()

	sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}))
	if err := sim.Reset(0); !errors.Is(err, ErrNoRoutine) {
		t.Errorf("Reset() error = %v, want ErrNoRoutine", err)
	}
}

// Collaborators

func TestSimulation_ObserversSeeAgentNames(t *testing.T) {
	t.Parallel()

	log := &transitionLog{}
	sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}), WithObserver(log))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 2, Y: 1}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if _, err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(log.seen) != 2 {
		t.Fatalf("len(transitions) = %d, want 2", len(log.seen))
	}
	start, done := log.seen[0], log.seen[1]
	if start.Agent != "r2" || start.To != routine.StateRunning {
		t.Errorf("start transition = %+v, want r2 to running", start)
	}
	if done.Agent != "r2" || done.To != routine.StateSuccess {
		t.Errorf("final transition = %+v, want r2 to success", done)
	}
}

func TestSimulation_StatechartLifecycle(t *testing.T) {
	t.Parallel()

	factory, err := statemachine.NewFactory()
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}

	sim := newTestSimulation(t, newTestWorld(t, 6, agentAt{"r2", 1, 1}), WithLifecycle(factory))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 4, Y: 4}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	rep, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rep.Agents[0].Outcome != routine.StateSuccess || rep.Ticks != 3 {
		t.Errorf("outcome = %+v after %d ticks, want success after 3", rep.Agents[0], rep.Ticks)
	}
}

func TestSimulation_RecordsEvents(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	sim := newTestSimulation(t, newTestWorld(t, 8, agentAt{"r2", 1, 1}),
		WithPublisher(infraevent.NewPublisher(store, infraevent.WithBufferSize(16))))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 3, Y: 1}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if _, err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events, err := store.LoadEvents(context.Background(), sim.RunID())
	if err != nil {
		t.Fatalf("LoadEvents() error = %v", err)
	}

	want := []event.Type{
		event.TypeRunStarted,
		event.TypeRoutineAssigned,
		event.TypeRoutineTransitioned, // none -> running
		event.TypeAgentMoved,
		event.TypeTickCompleted,
		event.TypeRoutineTransitioned, // running -> success
		event.TypeAgentMoved,
		event.TypeTickCompleted,
		event.TypeRunCompleted,
	}
	if len(events) != len(want) {
		t.Fatalf("len(events) = %d, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Errorf("events[%d].Type = %s, want %s", i, e.Type, want[i])
		}
		if e.Sequence != uint64(i+1) {
			t.Errorf("events[%d].Sequence = %d, want %d", i, e.Sequence, i+1)
		}
	}
}

func TestSimulation_SavesReport(t *testing.T) {
	t.Parallel()

	reports := memory.NewReportStore()
	sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}), WithReportStore(reports))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 2, Y: 2}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if _, err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := reports.Get(context.Background(), sim.RunID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Scenario != "test" || got.Status != report.StatusCompleted {
		t.Errorf("saved report = %+v", got)
	}
}

func TestSimulation_ReportSaveFailure(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("disk full")
	store := &failingReportStore{ReportStore: memory.NewReportStore(), err: saveErr}
	sim := newTestSimulation(t, newTestWorld(t, 4, agentAt{"r2", 1, 1}),
		WithReportStore(store),
		WithExecutor(resilience.NewExecutorWithOptions(resilience.WithRetryAttempts(1), resilience.WithoutCircuitBreaker())))

	rep, err := sim.Run(context.Background())
	if !errors.Is(err, saveErr) {
		t.Fatalf("Run() error = %v, want %v", err, saveErr)
	}
	if rep == nil || rep.Status != report.StatusCompleted {
		t.Errorf("Run() report = %+v, want completed report despite save failure", rep)
	}
}

func TestSimulation_Spans(t *testing.T) {
	t.Parallel()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	sim := newTestSimulation(t, newTestWorld(t, 6, agentAt{"r2", 1, 1}), WithTracer(telemetry.NewTracer(tp)))
	if err := sim.Assign(0, routine.Spec{Kind: routine.KindMoveTo, X: 4, Y: 1}); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if _, err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var runs, ticks int
	for _, s := range rec.Ended() {
		switch s.Name() {
		case "droid.run":
			runs++
		case "droid.tick":
			ticks++
		}
	}
	if runs != 1 || ticks != 3 {
		t.Errorf("spans = %d run / %d tick, want 1 / 3", runs, ticks)
	}
}
