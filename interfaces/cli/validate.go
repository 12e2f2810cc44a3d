package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
	infraconfig "github.com/felixgeelhaar/droid-go/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
	showSchema bool
	watch      bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a scenario file",
		Long: `Validate a scenario file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Required fields (name, grid size, agents)
  - Starting cells and routine parameters
  - Storage, telemetry and resilience settings
  - Environment variable references (in strict mode)

Examples:
  # Validate a scenario
  droid validate -c patrol.yaml

  # Re-validate every time the file is saved
  droid validate -c patrol.yaml --watch

  # Show the JSON schema for scenarios
  droid validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showSchema()
			}
			if opts.watch {
				return a.watchScenario(cmd.Context(), opts)
			}
			return a.validateScenario(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to scenario file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for scenarios")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Watch the file and re-validate on change")

	return cmd
}

func newLoader(strict bool) *infraconfig.Loader {
	loaderOpts := []infraconfig.LoaderOption{
		infraconfig.WithValidation(true),
	}
	if strict {
		loaderOpts = append(loaderOpts, infraconfig.WithStrictEnv(true))
	}
	return infraconfig.NewLoaderWithOptions(loaderOpts...)
}

// loadScenario loads and validates a scenario file.
func loadScenario(path string) (*domainconfig.Scenario, error) {
	if path == "" {
		return nil, fmt.Errorf("scenario file path is required (-c flag)")
	}
	scenario, err := newLoader(false).LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	return scenario, nil
}

// validateScenario validates the scenario file once.
func (a *App) validateScenario(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("scenario file path is required (-c flag)")
	}

	scenario, err := newLoader(opts.strict).LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if _, err := infraconfig.NewBuilder(scenario).Build(); err != nil {
		return fmt.Errorf("scenario build failed: %w", err)
	}

	a.printSummary(scenario)
	return nil
}

// watchScenario validates the file on every change until interrupted.
func (a *App) watchScenario(ctx context.Context, opts *validateOptions) error {
	if err := a.validateScenario(opts); err != nil {
		fmt.Fprintf(a.stderr, "✗ %v\n", err)
	}

	watcher, err := infraconfig.NewWatcher(opts.configPath, newLoader(opts.strict))
	if err != nil {
		return err
	}
	defer watcher.Close()

	reloads, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	for r := range reloads {
		if r.Err == nil {
			_, r.Err = infraconfig.NewBuilder(r.Scenario).Build()
		}
		if r.Err != nil {
			fmt.Fprintf(a.stderr, "✗ %v\n", r.Err)
			continue
		}
		a.printSummary(r.Scenario)
	}
	return nil
}

func (a *App) printSummary(s *domainconfig.Scenario) {
	fmt.Fprintf(a.stdout, "✓ Scenario is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", s.Name)
	fmt.Fprintf(a.stdout, "  Version: %s\n", s.Version)
	if s.Description != "" {
		fmt.Fprintf(a.stdout, "  Description: %s\n", s.Description)
	}

	fmt.Fprintf(a.stdout, "\nScenario summary:\n")
	fmt.Fprintf(a.stdout, "  Grid: %dx%d\n", s.Grid.Size, s.Grid.Size)
	fmt.Fprintf(a.stdout, "  Max ticks: %d\n", s.Simulation.MaxTicks)
	fmt.Fprintf(a.stdout, "  Lifecycle: %s\n", s.Simulation.Lifecycle)
	fmt.Fprintf(a.stdout, "  Selector: %s\n", s.Simulation.Selector)
	fmt.Fprintf(a.stdout, "  Agents: %d\n", len(s.Agents))
	for _, ag := range s.Agents {
		routineDesc := "idle"
		if ag.Routine != nil {
			routineDesc = ag.Routine.Spec().String()
		}
		fmt.Fprintf(a.stdout, "    - %s at (%d,%d): %s\n", ag.Name, ag.X, ag.Y, routineDesc)
	}
	fmt.Fprintf(a.stdout, "  Storage: %s\n", s.Storage.Backend)
	if s.Storage.EventsDir != "" {
		fmt.Fprintf(a.stdout, "  Events: %s\n", s.Storage.EventsDir)
	}
	if s.Telemetry.Metrics || s.Telemetry.Tracing {
		fmt.Fprintf(a.stdout, "  Telemetry: metrics=%t tracing=%t\n", s.Telemetry.Metrics, s.Telemetry.Tracing)
	}
	if s.Resilience.Retry.Enabled {
		fmt.Fprintf(a.stdout, "  Retry: %d attempts\n", s.Resilience.Retry.MaxAttempts)
	}
	if s.Resilience.CircuitBreaker.Enabled {
		fmt.Fprintf(a.stdout, "  Circuit breaker: threshold %d\n", s.Resilience.CircuitBreaker.Threshold)
	}
}

// showSchema displays the JSON schema for scenarios.
func (a *App) showSchema() error {
	schemaJSON, err := infraconfig.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
