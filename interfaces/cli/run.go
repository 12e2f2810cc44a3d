package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/felixgeelhaar/droid-go/application"
	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
	"github.com/felixgeelhaar/droid-go/domain/report"
	"github.com/felixgeelhaar/droid-go/domain/routine"
	infraconfig "github.com/felixgeelhaar/droid-go/infrastructure/config"
	infraevent "github.com/felixgeelhaar/droid-go/infrastructure/event"
	"github.com/felixgeelhaar/droid-go/infrastructure/logging"
	"github.com/felixgeelhaar/droid-go/infrastructure/resilience"
	"github.com/felixgeelhaar/droid-go/infrastructure/statemachine"
	"github.com/felixgeelhaar/droid-go/infrastructure/telemetry"
)

// runOptions holds options for the run command.
type runOptions struct {
	configPath  string
	runID       string
	maxTicks    int
	keepRunning bool
	timeout     time.Duration
	jsonOutput  bool
	render      bool
	trace       bool
	metrics     bool
	metricsFile string
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario",
		Long: `Run a scenario until every routine has finished, the tick limit is
reached or the command is interrupted.

Examples:
  # Run a scenario
  droid run -c patrol.yaml

  # Cap the run and print the board before and after
  droid run -c patrol.yaml --max-ticks 20 --render

  # Emit the report and metric totals as JSON
  droid run -c patrol.yaml --json --metrics

  # Write spans for the run and every tick to stderr
  droid run -c patrol.yaml --trace

  # Leave metric totals for the node_exporter textfile collector
  droid run -c patrol.yaml --metrics-textfile /var/lib/node_exporter/droid.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScenario(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to scenario file (required)")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "Run identifier (default: generated)")
	cmd.Flags().IntVar(&opts.maxTicks, "max-ticks", 0, "Maximum ticks (overrides scenario)")
	cmd.Flags().BoolVar(&opts.keepRunning, "keep-running", false, "Keep ticking after every routine has finished")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Wall-clock limit for the run")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&opts.render, "render", false, "Print the board before and after the run")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Enable tracing (overrides scenario)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Enable metrics (overrides scenario)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-textfile", "", "Write metric totals in Prometheus text format (implies --metrics)")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// runOutput is the JSON shape of a finished run.
type runOutput struct {
	Report  *report.Report     `json:"report"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// runScenario loads, builds and runs a scenario.
func (a *App) runScenario(ctx context.Context, opts *runOptions) (err error) {
	scenario, err := loadScenario(opts.configPath)
	if err != nil {
		return err
	}
	if opts.maxTicks > 0 {
		scenario.Simulation.MaxTicks = opts.maxTicks
	}
	if opts.keepRunning {
		scenario.Simulation.KeepRunning = true
	}
	if opts.trace {
		scenario.Telemetry.Tracing = true
		if scenario.Telemetry.Exporter == "" {
			scenario.Telemetry.Exporter = "stdout"
		}
	}
	if opts.metrics || opts.metricsFile != "" {
		scenario.Telemetry.Metrics = true
	}

	built, err := infraconfig.NewBuilder(scenario).Build()
	if err != nil {
		return err
	}
	built.Logging.Output = a.stderr
	logging.Init(built.Logging)

	stores, err := openBackends(ctx, built.Storage)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, stores.Close()) }()

	executor := resilience.NewExecutor(resilience.ConfigFrom(built.Resilience))
	simOpts := []application.Option{
		application.WithWorld(built.World),
		application.WithScenario(scenario.Name),
		application.WithRunID(opts.runID),
		application.WithMaxTicks(built.MaxTicks),
		application.WithKeepRunning(built.KeepRunning),
		application.WithExecutor(executor),
		application.WithReportStore(stores.reports),
		application.WithPublisher(infraevent.NewPublisher(stores.events,
			infraevent.WithBufferSize(64),
			infraevent.WithGuard(executor),
		)),
	}

	lifecycle, err := lifecycleFor(built.Lifecycle)
	if err != nil {
		return err
	}
	if lifecycle != nil {
		simOpts = append(simOpts, application.WithLifecycle(lifecycle))
	}
	if selector := selectorFor(built.Selector); selector != nil {
		simOpts = append(simOpts, application.WithSelector(selector))
	}

	var snapshot func(context.Context) (map[string]float64, error)
	if built.Telemetry.Metrics {
		provider, reader := telemetry.NewSnapshotProvider()
		defer func() { _ = provider.Shutdown(context.WithoutCancel(ctx)) }()

		cfg := telemetry.DefaultMetricsConfig()
		cfg.MeterProvider = provider
		simOpts = append(simOpts, application.WithMetrics(telemetry.NewMetricsProvider(cfg)))
		snapshot = func(ctx context.Context) (map[string]float64, error) {
			return telemetry.Snapshot(ctx, reader)
		}
	}
	if built.Telemetry.Tracing {
		tp, tpErr := a.tracerProvider(ctx, built.Telemetry)
		if tpErr != nil {
			return fmt.Errorf("failed to set up tracing: %w", tpErr)
		}
		defer func() { err = errors.Join(err, tp.Shutdown(context.WithoutCancel(ctx))) }()
		simOpts = append(simOpts, application.WithTracer(telemetry.NewTracer(tp)))
	}

	sim, err := application.New(simOpts...)
	if err != nil {
		return fmt.Errorf("failed to create simulation: %w", err)
	}
	for _, as := range built.Assignments {
		if err := sim.Assign(as.Index, as.Spec); err != nil {
			return fmt.Errorf("assign %s to %s: %w", as.Spec, as.Agent, err)
		}
	}

	if opts.render && !opts.jsonOutput {
		_ = built.World.Render(a.stdout)
		fmt.Fprintln(a.stdout)
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	rep, runErr := sim.Run(ctx)
	if rep == nil {
		return fmt.Errorf("run failed: %w", runErr)
	}

	out := runOutput{Report: rep}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	if snapshot != nil {
		if out.Metrics, err = snapshot(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("failed to collect metrics: %w", err)
		}
	}
	if opts.metricsFile != "" {
		labels := map[string]string{"scenario": rep.Scenario}
		if err := telemetry.WriteTextfile(opts.metricsFile, out.Metrics, labels); err != nil {
			return fmt.Errorf("failed to write metrics textfile: %w", err)
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		if opts.render {
			_ = built.World.Render(a.stdout)
			fmt.Fprintln(a.stdout)
		}
		printReport(a.stdout, rep)
		printMetrics(a.stdout, out.Metrics)
	}

	if runErr != nil {
		return fmt.Errorf("run %s: %w", rep.RunID, runErr)
	}
	return nil
}

// tracerProvider builds the span exporter named by cfg.
func (a *App) tracerProvider(ctx context.Context, cfg domainconfig.TelemetryConfig) (*sdktrace.TracerProvider, error) {
	traceCfg := telemetry.TraceConfig{
		ServiceName:    "droid",
		ServiceVersion: Version,
	}
	if cfg.Exporter == "otlp" {
		return telemetry.NewOTLPProvider(ctx, traceCfg, cfg.Endpoint, cfg.Insecure)
	}
	traceCfg.Output = a.stderr
	return telemetry.NewStdoutProvider(traceCfg)
}

// lifecycleFor maps a lifecycle name to a factory. Nil means the routine
// package's transition table.
func lifecycleFor(name string) (routine.LifecycleFactory, error) {
	switch name {
	case "", "table":
		return nil, nil
	case "statechart":
		f, err := statemachine.NewFactory()
		if err != nil {
			return nil, fmt.Errorf("failed to build statechart lifecycle: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown lifecycle: %s", name)
	}
}

// selectorFor maps a selector name to a routine.Selector.
func selectorFor(name string) routine.Selector {
	if name == "nearest" {
		return application.NearestSelector{}
	}
	return nil
}

// printReport writes a human-readable report.
func printReport(w io.Writer, rep *report.Report) {
	succeeded, failed, running := rep.Counts()

	fmt.Fprintf(w, "Run %s\n", rep.RunID)
	if rep.Scenario != "" {
		fmt.Fprintf(w, "  Scenario: %s\n", rep.Scenario)
	}
	fmt.Fprintf(w, "  Status: %s\n", rep.Status)
	fmt.Fprintf(w, "  Ticks: %d\n", rep.Ticks)
	fmt.Fprintf(w, "  Duration: %s\n", rep.Duration())
	fmt.Fprintf(w, "  Routines: %d succeeded, %d failed, %d running\n", succeeded, failed, running)

	if len(rep.Agents) == 0 {
		return
	}
	fmt.Fprintf(w, "\n")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  AGENT\tROUTINE\tOUTCOME\tCELL\tREASON")
	for _, ag := range rep.Agents {
		kind := string(ag.Kind)
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t(%d,%d)\t%s\n", ag.Name, kind, ag.Outcome, ag.X, ag.Y, ag.Reason)
	}
	_ = tw.Flush()
}

// printMetrics writes metric totals in name order.
func printMetrics(w io.Writer, metrics map[string]float64) {
	if len(metrics) == 0 {
		return
	}
	fmt.Fprintf(w, "\nMetrics:\n")
	for _, name := range sortedKeys(metrics) {
		fmt.Fprintf(w, "  %s: %g\n", name, metrics[name])
	}
}
