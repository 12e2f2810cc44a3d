package application

import (
	"github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/felixgeelhaar/droid-go/domain/report"
	"github.com/felixgeelhaar/droid-go/domain/routine"
	"github.com/felixgeelhaar/droid-go/infrastructure/resilience"
	"github.com/felixgeelhaar/droid-go/infrastructure/telemetry"
	"github.com/felixgeelhaar/droid-go/infrastructure/world"
)

// Option configures the simulation.
type Option func(*SimulationConfig)

// WithWorld sets the board the simulation drives.
func WithWorld(w *world.World) Option {
	return func(c *SimulationConfig) {
		c.World = w
	}
}

// WithScenario sets the scenario name recorded in reports.
func WithScenario(name string) Option {
	return func(c *SimulationConfig) {
		c.Scenario = name
	}
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(c *SimulationConfig) {
		c.RunID = id
	}
}

// WithMaxTicks bounds Run.
func WithMaxTicks(n int) Option {
	return func(c *SimulationConfig) {
		c.MaxTicks = n
	}
}

// WithKeepRunning keeps Run ticking after every routine is terminal.
func WithKeepRunning(keep bool) Option {
	return func(c *SimulationConfig) {
		c.KeepRunning = keep
	}
}

// WithLifecycle sets the lifecycle factory given to every routine.
func WithLifecycle(f routine.LifecycleFactory) Option {
	return func(c *SimulationConfig) {
		c.Lifecycle = f
	}
}

// WithSelector sets the policy resolving unset protect references.
func WithSelector(s routine.Selector) Option {
	return func(c *SimulationConfig) {
		c.Selector = s
	}
}

// WithObserver adds a transition observer.
func WithObserver(o routine.Observer) Option {
	return func(c *SimulationConfig) {
		c.Observers = append(c.Observers, o)
	}
}

// WithPublisher records run events through p.
func WithPublisher(p event.Publisher) Option {
	return func(c *SimulationConfig) {
		c.Publisher = p
	}
}

// WithReportStore persists the final report.
func WithReportStore(s report.Store) Option {
	return func(c *SimulationConfig) {
		c.Reports = s
	}
}

// WithExecutor sets the resilient executor used for report writes.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *SimulationConfig) {
		c.Executor = e
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *SimulationConfig) {
		c.Metrics = m
	}
}

// WithTracer sets the span factory.
func WithTracer(t *telemetry.Tracer) Option {
	return func(c *SimulationConfig) {
		c.Tracer = t
	}
}

// New creates a simulation with the given options.
func New(opts ...Option) (*Simulation, error) {
	config := SimulationConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	return NewSimulation(config)
}
