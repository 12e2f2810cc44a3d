package config

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates scenario configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the scenario and returns any errors. Agent references
// are not range-checked; an out-of-range reference fails its routine at
// run time.
func (v *Validator) Validate(s *Scenario) ValidationErrors {
	v.errors = nil

	v.validateRequired(s)
	v.validateGrid(s)
	v.validateAgents(s)
	v.validateSimulation(s)
	v.validateLogging(s)
	v.validateStorage(s)
	v.validateTelemetry(s)
	v.validateResilience(s)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(s *Scenario) {
	if s.Name == "" {
		v.addError("name", "name is required")
	}
	if s.Version == "" {
		v.addError("version", "version is required")
	}
}

// MaxGridSize bounds the board side length.
const MaxGridSize = 4096

func (v *Validator) validateGrid(s *Scenario) {
	if s.Grid.Size <= 0 {
		v.addError("grid.size", "size must be positive")
	} else if s.Grid.Size > MaxGridSize {
		v.addError("grid.size", fmt.Sprintf("size must be at most %d", MaxGridSize))
	}
}

func (v *Validator) validateAgents(s *Scenario) {
	if len(s.Agents) == 0 {
		v.addError("agents", "at least one agent is required")
		return
	}

	names := make(map[string]int, len(s.Agents))
	for i, a := range s.Agents {
		path := fmt.Sprintf("agents[%d]", i)

		if a.Name != "" {
			if prev, ok := names[a.Name]; ok {
				v.addError(path+".name", fmt.Sprintf("duplicate name %q (also agents[%d])", a.Name, prev))
			} else {
				names[a.Name] = i
			}
		}

		if s.Grid.Size > 0 {
			if a.X < 1 || a.X > s.Grid.Size || a.Y < 1 || a.Y > s.Grid.Size {
				v.addError(path, fmt.Sprintf("position (%d,%d) is outside the %dx%d grid", a.X, a.Y, s.Grid.Size, s.Grid.Size))
			}
		}

		if a.Routine != nil {
			v.validateRoutine(path+".routine", *a.Routine)
		}
	}
}

func (v *Validator) validateRoutine(path string, r RoutineConfig) {
	kind := routine.Kind(r.Kind)
	if r.Kind == "" {
		v.addError(path+".kind", "kind is required")
		return
	}
	if !kind.IsValid() {
		v.addError(path+".kind", fmt.Sprintf("unknown kind: %s", r.Kind))
		return
	}

	switch kind {
	case routine.KindFollowBehind:
		if r.Leader < 1 {
			v.addError(path+".leader", "leader must be a 1-based agent position")
		}
	case routine.KindProtect:
		if r.Protected < routine.Unset {
			v.addError(path+".protected", fmt.Sprintf("invalid reference: %d", r.Protected))
		}
		if r.Threat < routine.Unset {
			v.addError(path+".threat", fmt.Sprintf("invalid reference: %d", r.Threat))
		}
	}
}

func (v *Validator) validateSimulation(s *Scenario) {
	if s.Simulation.MaxTicks < 0 {
		v.addError("simulation.max_ticks", "max_ticks must be non-negative")
	}

	if s.Simulation.Selector != "" {
		validSelectors := map[string]bool{"none": true, "nearest": true}
		if !validSelectors[s.Simulation.Selector] {
			v.addError("simulation.selector", fmt.Sprintf("invalid selector: %s", s.Simulation.Selector))
		}
	}

	if s.Simulation.Lifecycle != "" {
		validLifecycles := map[string]bool{"table": true, "statechart": true}
		if !validLifecycles[s.Simulation.Lifecycle] {
			v.addError("simulation.lifecycle", fmt.Sprintf("invalid lifecycle: %s", s.Simulation.Lifecycle))
		}
	}
}

func (v *Validator) validateLogging(s *Scenario) {
	if s.Logging.Level != "" {
		validLevels := map[string]bool{
			"trace": true, "debug": true, "info": true, "warn": true, "error": true,
		}
		if !validLevels[strings.ToLower(s.Logging.Level)] {
			v.addError("logging.level", fmt.Sprintf("invalid level: %s", s.Logging.Level))
		}
	}
	if s.Logging.Format != "" && s.Logging.Format != "json" && s.Logging.Format != "console" {
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", s.Logging.Format))
	}
}

func (v *Validator) validateStorage(s *Scenario) {
	switch s.Storage.Backend {
	case "", "memory":
	case "sqlite", "postgres":
		if s.Storage.DSN == "" {
			v.addError("storage.dsn", fmt.Sprintf("dsn is required for %s backend", s.Storage.Backend))
		}
	case "redis":
		if s.Storage.Address == "" {
			v.addError("storage.address", "address is required for redis backend")
		}
	default:
		v.addError("storage.backend", fmt.Sprintf("unknown backend: %s", s.Storage.Backend))
	}
}

func (v *Validator) validateTelemetry(s *Scenario) {
	switch s.Telemetry.Exporter {
	case "", "stdout":
	case "otlp":
		if s.Telemetry.Endpoint == "" {
			v.addError("telemetry.endpoint", "endpoint is required for otlp exporter")
		}
	default:
		v.addError("telemetry.exporter", fmt.Sprintf("unknown exporter: %s", s.Telemetry.Exporter))
	}
}

func (v *Validator) validateResilience(s *Scenario) {
	if s.Resilience.Timeout < 0 {
		v.addError("resilience.timeout", "timeout must be non-negative")
	}

	if s.Resilience.Retry.Enabled {
		if s.Resilience.Retry.MaxAttempts <= 0 {
			v.addError("resilience.retry.max_attempts", "max_attempts must be positive when enabled")
		}
		if s.Resilience.Retry.Multiplier < 1 {
			v.addError("resilience.retry.multiplier", "multiplier must be >= 1")
		}
	}

	if s.Resilience.CircuitBreaker.Enabled {
		if s.Resilience.CircuitBreaker.Threshold <= 0 {
			v.addError("resilience.circuit_breaker.threshold", "threshold must be positive when enabled")
		}
	}
}
