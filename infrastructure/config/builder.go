package config

import (
	"fmt"

	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
	"github.com/felixgeelhaar/droid-go/domain/geom"
	"github.com/felixgeelhaar/droid-go/domain/routine"
	"github.com/felixgeelhaar/droid-go/infrastructure/logging"
	"github.com/felixgeelhaar/droid-go/infrastructure/world"
)

// Builder builds a runnable world from a scenario.
type Builder struct {
	config *domainconfig.Scenario
}

// NewBuilder creates a new scenario builder.
func NewBuilder(config *domainconfig.Scenario) *Builder {
	return &Builder{config: config}
}

// Assignment binds a routine spec to a roster position.
type Assignment struct {
	// Index is the 0-based roster position.
	Index int
	// Agent is the agent name.
	Agent string
	// Spec describes the routine to build.
	Spec routine.Spec
}

// BuildResult contains the components built from a scenario.
type BuildResult struct {
	// World is the populated board.
	World *world.World
	// Assignments lists routines in roster order. Idle agents are omitted.
	Assignments []Assignment
	// MaxTicks bounds the run.
	MaxTicks int
	// KeepRunning keeps ticking after every routine is terminal.
	KeepRunning bool
	// Selector names the protect selector (none, nearest).
	Selector string
	// Lifecycle names the lifecycle engine (table, statechart).
	Lifecycle string
	// Logging is the logger configuration.
	Logging logging.Config
	// Storage is copied from the scenario.
	Storage domainconfig.StorageConfig
	// Telemetry is copied from the scenario.
	Telemetry domainconfig.TelemetryConfig
	// Resilience is copied from the scenario.
	Resilience domainconfig.ResilienceConfig
}

// Build builds the world and routine assignments from the scenario.
func (b *Builder) Build() (*BuildResult, error) {
	if b.config == nil {
		return nil, fmt.Errorf("%w: nil scenario", domainconfig.ErrBuildFailed)
	}

	result := &BuildResult{
		MaxTicks:    b.config.Simulation.MaxTicks,
		KeepRunning: b.config.Simulation.KeepRunning,
		Selector:    b.config.Simulation.Selector,
		Lifecycle:   b.config.Simulation.Lifecycle,
		Storage:     b.config.Storage,
		Telemetry:   b.config.Telemetry,
		Resilience:  b.config.Resilience,
	}
	if result.MaxTicks <= 0 {
		result.MaxTicks = domainconfig.DefaultMaxTicks
	}

	// Build world
	if err := b.buildWorld(result); err != nil {
		return nil, fmt.Errorf("%w: building world: %w", domainconfig.ErrBuildFailed, err)
	}

	// Build routine assignments
	if err := b.buildAssignments(result); err != nil {
		return nil, fmt.Errorf("%w: building routines: %w", domainconfig.ErrBuildFailed, err)
	}

	result.Logging = logging.FromScenario(b.config.Logging, nil)

	return result, nil
}

func (b *Builder) buildWorld(result *BuildResult) error {
	size := b.config.Grid.Size
	if size == 0 {
		size = domainconfig.DefaultGridSize
	}

	origin := geom.V(b.config.Grid.Origin.X, b.config.Grid.Origin.Y)
	w, err := world.New(size, world.WithOrigin(origin))
	if err != nil {
		return err
	}

	for i, a := range b.config.Agents {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("droid-%d", i+1)
		}
		if _, err := w.Spawn(name, a.X, a.Y); err != nil {
			return fmt.Errorf("agents[%d]: %w", i, err)
		}
	}

	result.World = w
	return nil
}

func (b *Builder) buildAssignments(result *BuildResult) error {
	for i, a := range b.config.Agents {
		if a.Routine == nil {
			continue
		}
		spec := a.Routine.Spec()
		if !spec.Kind.IsValid() {
			return fmt.Errorf("agents[%d]: %w: %q", i, routine.ErrUnknownKind, spec.Kind)
		}
		agent, err := result.World.Agent(i)
		if err != nil {
			return err
		}
		result.Assignments = append(result.Assignments, Assignment{
			Index: i,
			Agent: agent.Name,
			Spec:  spec,
		})
	}
	return nil
}
