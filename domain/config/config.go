// Package config provides domain models for scenario configuration.
package config

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// Scenario represents a complete simulation scenario.
type Scenario struct {
	// Name is a human-readable name for this scenario.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes what the scenario demonstrates.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Grid describes the board.
	Grid GridConfig `json:"grid" yaml:"grid"`
	// Agents is the roster, in scheduling order.
	Agents []AgentConfig `json:"agents" yaml:"agents"`
	// Simulation contains scheduler settings.
	Simulation SimulationConfig `json:"simulation,omitempty" yaml:"simulation,omitempty"`
	// Logging contains logger settings.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Storage selects where run reports and events are kept.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
	// Telemetry toggles metrics and tracing.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	// Resilience contains settings for persistence retries.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
}

// GridConfig describes the square board.
type GridConfig struct {
	// Size is the side length in cells. Cells are numbered 1..Size.
	Size int `json:"size" yaml:"size"`
	// Origin is the world position of cell (0,0).
	Origin OriginConfig `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// OriginConfig is a world-space offset.
type OriginConfig struct {
	X float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y float64 `json:"y,omitempty" yaml:"y,omitempty"`
}

// AgentConfig places one agent and optionally assigns its routine.
type AgentConfig struct {
	// Name identifies the agent. Defaults to droid-N.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// X and Y are the starting cell.
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	// Routine is the behaviour to run. Nil leaves the agent idle.
	Routine *RoutineConfig `json:"routine,omitempty" yaml:"routine,omitempty"`
}

// RoutineConfig selects a routine. Agent references are 1-based roster
// positions; -1 (or omitted for protect) leaves the choice to the
// configured selector.
type RoutineConfig struct {
	Kind      string `json:"kind" yaml:"kind"`
	Leader    int    `json:"leader,omitempty" yaml:"leader,omitempty"`
	Protected int    `json:"protected,omitempty" yaml:"protected,omitempty"`
	Threat    int    `json:"threat,omitempty" yaml:"threat,omitempty"`
	X         int    `json:"x,omitempty" yaml:"x,omitempty"`
	Y         int    `json:"y,omitempty" yaml:"y,omitempty"`
}

// Spec converts the configuration into a routine spec. Omitted protect
// references become routine.Unset.
func (r RoutineConfig) Spec() routine.Spec {
	spec := routine.Spec{
		Kind:      routine.Kind(r.Kind),
		Leader:    r.Leader,
		Protected: r.Protected,
		Threat:    r.Threat,
		X:         r.X,
		Y:         r.Y,
	}
	if spec.Kind == routine.KindProtect {
		if spec.Protected == 0 {
			spec.Protected = routine.Unset
		}
		if spec.Threat == 0 {
			spec.Threat = routine.Unset
		}
	}
	return spec
}

// SimulationConfig contains scheduler settings.
type SimulationConfig struct {
	// MaxTicks bounds a run. Zero uses the default.
	MaxTicks int `json:"max_ticks,omitempty" yaml:"max_ticks,omitempty"`
	// KeepRunning keeps ticking after every routine is terminal.
	KeepRunning bool `json:"keep_running,omitempty" yaml:"keep_running,omitempty"`
	// Selector resolves unset protect references (none, nearest).
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	// Lifecycle selects the routine lifecycle engine (table, statechart).
	Lifecycle string `json:"lifecycle,omitempty" yaml:"lifecycle,omitempty"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is the output format (json or console).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// StorageConfig selects persistence backends.
type StorageConfig struct {
	// Backend is the report store (memory, sqlite, redis, postgres).
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// DSN is the sqlite path or postgres connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Address is the redis address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// Prefix namespaces redis keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// EventsDir is a badger directory for transition events. Empty keeps
	// events in memory.
	EventsDir string `json:"events_dir,omitempty" yaml:"events_dir,omitempty"`
}

// TelemetryConfig toggles observability exporters.
type TelemetryConfig struct {
	// Metrics enables OpenTelemetry metric instruments.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	// Tracing enables spans for runs and ticks.
	Tracing bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	// Exporter selects the span exporter (stdout, otlp).
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector address, host:port.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS towards the collector.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
}

// ResilienceConfig contains resilience settings.
type ResilienceConfig struct {
	// Timeout bounds a single persistence call.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Retry configures retry behavior.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// CircuitBreaker configures circuit breaker behavior.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// Enabled enables retry.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// MaxAttempts is the maximum retry attempts.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// MaxDelay is the maximum delay between retries.
	MaxDelay Duration `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
	// Multiplier is the backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Enabled enables circuit breaker.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Threshold is failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Defaults.
const (
	DefaultVersion  = "1"
	DefaultGridSize = 8
	DefaultMaxTicks = 1000
)

// ApplyDefaults fills unset fields in place.
func (s *Scenario) ApplyDefaults() {
	if s.Version == "" {
		s.Version = DefaultVersion
	}
	if s.Grid.Size == 0 {
		s.Grid.Size = DefaultGridSize
	}
	for i := range s.Agents {
		if s.Agents[i].Name == "" {
			s.Agents[i].Name = fmt.Sprintf("droid-%d", i+1)
		}
	}
	if s.Simulation.MaxTicks == 0 {
		s.Simulation.MaxTicks = DefaultMaxTicks
	}
	if s.Simulation.Selector == "" {
		s.Simulation.Selector = "none"
	}
	if s.Simulation.Lifecycle == "" {
		s.Simulation.Lifecycle = "statechart"
	}
	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
	if s.Logging.Format == "" {
		s.Logging.Format = "console"
	}
	if s.Storage.Backend == "" {
		s.Storage.Backend = "memory"
	}
	if s.Storage.Prefix == "" {
		s.Storage.Prefix = "droid"
	}
	if s.Telemetry.Tracing && s.Telemetry.Exporter == "" {
		s.Telemetry.Exporter = "stdout"
	}

	r := &s.Resilience
	if r.Timeout == 0 {
		r.Timeout = Duration(5 * time.Second)
	}
	if r.Retry.Enabled {
		if r.Retry.MaxAttempts == 0 {
			r.Retry.MaxAttempts = 3
		}
		if r.Retry.InitialDelay == 0 {
			r.Retry.InitialDelay = Duration(100 * time.Millisecond)
		}
		if r.Retry.MaxDelay == 0 {
			r.Retry.MaxDelay = Duration(2 * time.Second)
		}
		if r.Retry.Multiplier == 0 {
			r.Retry.Multiplier = 2
		}
	}
	if r.CircuitBreaker.Enabled {
		if r.CircuitBreaker.Threshold == 0 {
			r.CircuitBreaker.Threshold = 5
		}
		if r.CircuitBreaker.Timeout == 0 {
			r.CircuitBreaker.Timeout = Duration(30 * time.Second)
		}
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
