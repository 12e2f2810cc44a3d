// Package application provides the tick scheduler that drives droid
// routines and the services built on its event log.
package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
	"github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/felixgeelhaar/droid-go/domain/geom"
	"github.com/felixgeelhaar/droid-go/domain/report"
	"github.com/felixgeelhaar/droid-go/domain/routine"
	infraevent "github.com/felixgeelhaar/droid-go/infrastructure/event"
	"github.com/felixgeelhaar/droid-go/infrastructure/logging"
	"github.com/felixgeelhaar/droid-go/infrastructure/resilience"
	"github.com/felixgeelhaar/droid-go/infrastructure/telemetry"
	"github.com/felixgeelhaar/droid-go/infrastructure/world"
)

// SimulationConfig contains configuration for the simulation.
type SimulationConfig struct {
	World       *world.World
	Scenario    string
	RunID       string
	MaxTicks    int
	KeepRunning bool
	Lifecycle   routine.LifecycleFactory
	Selector    routine.Selector
	Observers   []routine.Observer
	Publisher   event.Publisher
	Reports     report.Store
	Executor    *resilience.Executor
	Metrics     telemetry.Metrics
	Tracer      *telemetry.Tracer
}

// TickReport summarizes one tick.
type TickReport struct {
	Tick    int `json:"tick"`
	Moved   int `json:"moved"`
	Running int `json:"running"`
}

// Simulation is the external scheduler for routines. It visits agents in
// roster order once per tick so replays are deterministic.
type Simulation struct {
	config   SimulationConfig
	world    *world.World
	routines []routine.Routine
	specs    []routine.Spec
	observer routine.Observer
	recorder *infraevent.Recorder
	spans    *telemetry.TransitionObserver

	tick      int
	started   bool
	finished  bool
	startedAt time.Time
	runCtx    context.Context
	runSpan   trace.Span
}

// NewSimulation creates a simulation with the given configuration.
func NewSimulation(config SimulationConfig) (*Simulation, error) {
	if config.World == nil {
		return nil, ErrNoWorld
	}

	// Set defaults
	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}
	if config.MaxTicks <= 0 {
		config.MaxTicks = domainconfig.DefaultMaxTicks
	}
	if config.Executor == nil {
		config.Executor = resilience.NewDefaultExecutor()
	}
	if config.Metrics == nil {
		config.Metrics = &telemetry.NoopMetricsProvider{}
	}
	if config.Tracer == nil {
		config.Tracer = telemetry.NewTracer(nil)
	}

	s := &Simulation{
		config:   config,
		world:    config.World,
		routines: make([]routine.Routine, config.World.Len()),
		specs:    make([]routine.Spec, config.World.Len()),
		spans:    telemetry.NewTransitionObserver(config.Metrics),
		runCtx:   context.Background(),
	}

	observers := routine.Observers{logging.NewLogObserver(nil, config.RunID), s.spans}
	if config.Publisher != nil {
		s.recorder = infraevent.NewRecorder(config.Publisher, config.RunID)
		observers = append(observers, s.recorder)
	}
	observers = append(observers, config.Observers...)
	s.observer = observers

	return s, nil
}

// RunID returns the run identifier.
func (s *Simulation) RunID() string {
	return s.config.RunID
}

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() int {
	return s.tick
}

// World returns the board being driven.
func (s *Simulation) World() *world.World {
	return s.world
}

// Routine returns the routine assigned to roster index i.
func (s *Simulation) Routine(i int) (routine.Routine, bool) {
	if i < 0 || i >= len(s.routines) || s.routines[i] == nil {
		return nil, false
	}
	return s.routines[i], true
}

// Assign builds a routine for the agent at roster index i, replacing any
// previous one. Once the run has started the new routine starts at once.
func (s *Simulation) Assign(i int, spec routine.Spec) error {
	if s.finished {
		return ErrFinished
	}
	agent, err := s.world.Agent(i)
	if err != nil {
		return err
	}

	opts := []routine.Option{routine.WithObserver(namedObserver{name: agent.Name, next: s.observer})}
	if s.config.Lifecycle != nil {
		opts = append(opts, routine.WithLifecycle(s.config.Lifecycle))
	}
	if s.config.Selector != nil {
		opts = append(opts, routine.WithSelector(s.config.Selector))
	}

	r, err := routine.New(spec, s.world, opts...)
	if err != nil {
		return err
	}

	if old := s.routines[i]; old != nil && old.State() != routine.StateNone {
		old.Reset("reassign " + agent.Name)
	}
	s.routines[i] = r
	s.specs[i] = spec

	if !s.started {
		return nil
	}
	s.record(s.runCtx, event.TypeRoutineAssigned, event.RoutineAssignedPayload{Agent: agent.Name, Index: i, Spec: spec})
	return r.Start(startMessage(r.Kind(), agent.Name))
}

// Start opens the run and starts every assigned routine.
func (s *Simulation) Start(ctx context.Context) error {
	if s.finished {
		return ErrFinished
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	s.startedAt = time.Now()
	s.runCtx, s.runSpan = s.config.Tracer.StartRun(ctx, s.config.RunID, s.config.Scenario, s.world.Len())
	s.spans.SetContext(s.runCtx)
	s.config.Metrics.IncrementActiveRuns(ctx)

	names := make([]string, 0, s.world.Len())
	for _, a := range s.world.Agents() {
		names = append(names, a.Name)
	}
	s.record(s.runCtx, event.TypeRunStarted, event.RunStartedPayload{
		Scenario: s.config.Scenario,
		GridSize: s.world.Size(),
		Agents:   names,
		MaxTicks: s.config.MaxTicks,
	})

	logging.Info().
		Add(logging.RunID(s.config.RunID)).
		Add(logging.Str("scenario", s.config.Scenario)).
		Add(logging.Int("agents", len(names))).
		Msg("run started")

	var errs []error
	for i, r := range s.routines {
		if r == nil {
			continue
		}
		s.record(s.runCtx, event.TypeRoutineAssigned, event.RoutineAssignedPayload{Agent: names[i], Index: i, Spec: s.specs[i]})
		if r.State() != routine.StateNone {
			continue
		}
		if err := r.Start(startMessage(r.Kind(), names[i])); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}

// Tick runs one scheduler step: every running routine acts once, in roster
// order.
func (s *Simulation) Tick(ctx context.Context) (TickReport, error) {
	if s.finished {
		return TickReport{}, ErrFinished
	}
	if !s.started {
		return TickReport{}, ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return TickReport{}, err
	}

	s.tick++
	begin := time.Now()
	tickCtx, span := s.config.Tracer.StartTick(s.runCtx, s.tick)
	s.spans.SetContext(tickCtx)
	defer s.spans.SetContext(s.runCtx)
	if s.recorder != nil {
		s.recorder.SetTick(s.tick)
	}

	rep := TickReport{Tick: s.tick}
	var errs []error
	for i, r := range s.routines {
		if r == nil || !r.IsRunning() {
			continue
		}
		agent, err := s.world.Agent(i)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		before := agent.Position
		fromX, fromY := agent.Cell()
		r.Act(agent, s.world)

		if !withinStep(before, agent.Position) {
			errs = append(errs, fmt.Errorf("%w: %s at tick %d", ErrStepInvariant, agent.Name, s.tick))
		}
		if x, y := agent.Cell(); x != fromX || y != fromY {
			rep.Moved++
			s.config.Metrics.RecordStep(tickCtx, string(r.Kind()))
			s.record(tickCtx, event.TypeAgentMoved, event.AgentMovedPayload{
				Tick:  s.tick,
				Agent: agent.Name,
				FromX: fromX,
				FromY: fromY,
				ToX:   x,
				ToY:   y,
			})
		}
		if r.IsRunning() {
			rep.Running++
		}
	}

	s.record(tickCtx, event.TypeTickCompleted, event.TickCompletedPayload{
		Tick:    rep.Tick,
		Moved:   rep.Moved,
		Running: rep.Running,
	})
	s.config.Metrics.RecordTick(tickCtx, rep.Running, time.Since(begin))

	err := errors.Join(errs...)
	if err != nil {
		s.config.Metrics.RecordError(tickCtx, "tick")
	}
	telemetry.EndSpan(span, err)

	logging.Trace().
		Add(logging.RunID(s.config.RunID)).
		Add(logging.Tick(rep.Tick)).
		Add(logging.Int("moved", rep.Moved)).
		Add(logging.Int("running", rep.Running)).
		Msg("tick completed")

	return rep, err
}

// Done reports whether no routine is still running.
func (s *Simulation) Done() bool {
	for _, r := range s.routines {
		if r != nil && r.IsRunning() {
			return false
		}
	}
	return true
}

// Reset returns the routine at roster index i to none. It stays assigned
// and can be restarted by assigning it again.
func (s *Simulation) Reset(i int) error {
	r, ok := s.Routine(i)
	if !ok {
		if _, err := s.world.Agent(i); err != nil {
			return err
		}
		return fmt.Errorf("%w: agent %d", ErrNoRoutine, i)
	}
	agent, _ := s.world.Agent(i)
	r.Reset("reset " + agent.Name)
	return nil
}

// Run ticks until every routine is terminal, the tick budget is spent or
// ctx is cancelled, then finishes the run.
func (s *Simulation) Run(ctx context.Context) (*report.Report, error) {
	if !s.started {
		if err := s.Start(ctx); err != nil {
			return nil, err
		}
	}

	var cause error
	for s.tick < s.config.MaxTicks {
		if s.Done() && !s.config.KeepRunning {
			break
		}
		if _, err := s.Tick(ctx); err != nil {
			cause = err
			break
		}
	}
	return s.Finish(ctx, cause)
}

// Finish closes the run: it records the closing event, flushes the event
// publisher and saves the report through the executor. A non-nil cause marks
// the run as cancelled and is returned joined with any persistence error.
func (s *Simulation) Finish(ctx context.Context, cause error) (*report.Report, error) {
	if s.finished {
		return nil, ErrFinished
	}
	if !s.started {
		return nil, ErrNotStarted
	}
	s.finished = true

	// Persist even when the run itself was cancelled.
	persistCtx := context.WithoutCancel(ctx)
	rep := s.buildReport(cause)
	succeeded, failed, running := rep.Counts()

	if cause != nil {
		s.record(persistCtx, event.TypeRunFailed, event.RunFailedPayload{
			Error:    cause.Error(),
			Tick:     s.tick,
			Duration: rep.Duration(),
		})
		logging.Warn().
			Add(logging.RunID(rep.RunID)).
			Add(logging.Tick(s.tick)).
			Add(logging.ErrorField(cause)).
			Msg("run stopped")
	} else {
		s.record(persistCtx, event.TypeRunCompleted, event.RunCompletedPayload{
			Ticks:     s.tick,
			Duration:  rep.Duration(),
			Succeeded: succeeded,
			Failed:    failed,
			Running:   running,
		})
		logging.Info().
			Add(logging.RunID(rep.RunID)).
			Add(logging.Str("status", string(rep.Status))).
			Add(logging.Int("ticks", s.tick)).
			Add(logging.Duration(rep.Duration())).
			Msg("run completed")
	}

	s.config.Metrics.RecordRun(persistCtx, rep.Duration(), s.tick, string(rep.Status))
	s.config.Metrics.DecrementActiveRuns(persistCtx)

	errs := []error{cause}
	if s.recorder != nil {
		err := s.recorder.Close()
		s.config.Metrics.RecordStoreWrite(persistCtx, "events", err == nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("record events: %w", err))
		}
	}
	if s.config.Reports != nil {
		err := s.config.Executor.Do(persistCtx, func(ctx context.Context) error {
			return s.config.Reports.Save(ctx, rep)
		})
		s.config.Metrics.RecordStoreWrite(persistCtx, "report", err == nil)
		if err != nil {
			logging.Error().
				Add(logging.RunID(rep.RunID)).
				Add(logging.Component("reports")).
				Add(logging.Str("breaker", s.config.Executor.CircuitBreakerState())).
				Add(logging.ErrorField(err)).
				Msg("save report failed")
			errs = append(errs, fmt.Errorf("save report: %w", err))
		}
	}

	telemetry.EndSpan(s.runSpan, cause)
	return rep, errors.Join(errs...)
}

// buildReport snapshots the roster into a report.
func (s *Simulation) buildReport(cause error) *report.Report {
	rep := &report.Report{
		RunID:      s.config.RunID,
		Scenario:   s.config.Scenario,
		GridSize:   s.world.Size(),
		Ticks:      s.tick,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
		Agents:     make([]report.AgentOutcome, 0, s.world.Len()),
	}

	for i, a := range s.world.Agents() {
		outcome := report.AgentOutcome{Name: a.Name, Outcome: routine.StateNone, X: a.X, Y: a.Y}
		if r := s.routines[i]; r != nil {
			res := r.Result()
			outcome.Kind = r.Kind()
			outcome.Outcome = r.State()
			outcome.Reason = res.Reason
			outcome.Cause = res.Error()
		}
		rep.Agents = append(rep.Agents, outcome)
	}

	switch {
	case cause != nil:
		rep.Status = report.StatusCancelled
	case s.Done():
		rep.Status = report.StatusCompleted
	default:
		rep.Status = report.StatusExhausted
	}
	return rep
}

// record publishes an event when a publisher is configured. The log outlives
// cancellation of the run. Failures are kept by the recorder and surface
// from Finish.
func (s *Simulation) record(ctx context.Context, typ event.Type, payload any) {
	if s.recorder == nil {
		return
	}
	_ = s.recorder.Record(context.WithoutCancel(ctx), typ, payload)
}

func startMessage(kind routine.Kind, agent string) string {
	return fmt.Sprintf("start %s for %s", kind, agent)
}

// withinStep reports whether an agent moved at most one unit per axis.
func withinStep(before, after geom.Vec2) bool {
	const eps = 1e-9
	return math.Abs(after.X-before.X) <= 1+eps && math.Abs(after.Y-before.Y) <= 1+eps
}

// namedObserver fills in the agent name on transitions raised before the
// routine has acted.
type namedObserver struct {
	name string
	next routine.Observer
}

func (o namedObserver) OnTransition(t routine.Transition) {
	if t.Agent == "" {
		t.Agent = o.name
	}
	o.next.OnTransition(t)
}
