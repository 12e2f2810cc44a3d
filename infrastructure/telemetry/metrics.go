// Package telemetry provides OpenTelemetry metrics and tracing for
// simulation runs.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	ticks       metric.Int64Counter
	transitions metric.Int64Counter
	steps       metric.Int64Counter
	storeWrites metric.Int64Counter
	errors      metric.Int64Counter

	// Histograms
	tickDuration metric.Float64Histogram
	runDuration  metric.Float64Histogram
	runTicks     metric.Int64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeRuns    metric.Int64UpDownCounter
	runningAgents metric.Int64UpDownCounter
	lastRunning   int64
	runningMu     sync.Mutex

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/droid-go").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// MeterProvider overrides the global provider when set.
	MeterProvider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/droid-go",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}

	provider := config.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.ticks, err = mp.meter.Int64Counter(
		"droid.ticks",
		metric.WithDescription("Number of scheduler ticks"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return err
	}

	mp.transitions, err = mp.meter.Int64Counter(
		"droid.routine.transitions",
		metric.WithDescription("Number of routine lifecycle transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	mp.steps, err = mp.meter.Int64Counter(
		"droid.agent.steps",
		metric.WithDescription("Number of cell changes made by agents"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return err
	}

	mp.storeWrites, err = mp.meter.Int64Counter(
		"droid.store.writes",
		metric.WithDescription("Number of report and event store writes"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return err
	}

	mp.errors, err = mp.meter.Int64Counter(
		"droid.errors",
		metric.WithDescription("Number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.tickDuration, err = mp.meter.Float64Histogram(
		"droid.tick.duration",
		metric.WithDescription("Duration of scheduler ticks"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.runDuration, err = mp.meter.Float64Histogram(
		"droid.run.duration",
		metric.WithDescription("Duration of simulation runs"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.runTicks, err = mp.meter.Int64Histogram(
		"droid.run.ticks",
		metric.WithDescription("Ticks taken by simulation runs"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return err
	}

	mp.activeRuns, err = mp.meter.Int64UpDownCounter(
		"droid.runs.active",
		metric.WithDescription("Number of active simulation runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	mp.runningAgents, err = mp.meter.Int64UpDownCounter(
		"droid.routines.running",
		metric.WithDescription("Number of routines still running after the last tick"),
		metric.WithUnit("{routine}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordTick records one completed scheduler tick.
func (mp *MetricsProvider) RecordTick(ctx context.Context, running int, duration time.Duration) {
	mp.ticks.Add(ctx, 1)
	mp.tickDuration.Record(ctx, float64(duration.Microseconds())/1000)

	mp.runningMu.Lock()
	delta := int64(running) - mp.lastRunning
	mp.lastRunning = int64(running)
	mp.runningMu.Unlock()
	if delta != 0 {
		mp.runningAgents.Add(ctx, delta)
	}
}

// RecordTransition records a routine lifecycle transition.
func (mp *MetricsProvider) RecordTransition(ctx context.Context, kind, fromState, toState string) {
	attrs := []attribute.KeyValue{
		attribute.String("routine.kind", kind),
		attribute.String("state.from", fromState),
		attribute.String("state.to", toState),
	}

	mp.transitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStep records an agent changing cell.
func (mp *MetricsProvider) RecordStep(ctx context.Context, kind string) {
	mp.steps.Add(ctx, 1, metric.WithAttributes(attribute.String("routine.kind", kind)))
}

// RecordStoreWrite records a persistence call.
func (mp *MetricsProvider) RecordStoreWrite(ctx context.Context, store string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("store", store),
		attribute.Bool("success", success),
	}

	mp.storeWrites.Add(ctx, 1, metric.WithAttributes(attrs...))
	if !success {
		mp.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.type", "store_write"),
			attribute.String("store", store),
		))
	}
}

// RecordError records an error.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string) {
	mp.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error.type", errorType)))
}

// RecordRun records the duration and length of a finished run.
func (mp *MetricsProvider) RecordRun(ctx context.Context, duration time.Duration, ticks int, status string) {
	attrs := metric.WithAttributes(attribute.String("run.status", status))

	mp.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	mp.runTicks.Record(ctx, int64(ticks), attrs)
}

// IncrementActiveRuns increments the active runs counter.
func (mp *MetricsProvider) IncrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, 1)
}

// DecrementActiveRuns decrements the active runs counter.
func (mp *MetricsProvider) DecrementActiveRuns(ctx context.Context) {
	mp.activeRuns.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordTick is a no-op.
func (n *NoopMetricsProvider) RecordTick(context.Context, int, time.Duration) {}

// RecordTransition is a no-op.
func (n *NoopMetricsProvider) RecordTransition(context.Context, string, string, string) {}

// RecordStep is a no-op.
func (n *NoopMetricsProvider) RecordStep(context.Context, string) {}

// RecordStoreWrite is a no-op.
func (n *NoopMetricsProvider) RecordStoreWrite(context.Context, string, bool) {}

// RecordError is a no-op.
func (n *NoopMetricsProvider) RecordError(context.Context, string) {}

// RecordRun is a no-op.
func (n *NoopMetricsProvider) RecordRun(context.Context, time.Duration, int, string) {}

// IncrementActiveRuns is a no-op.
func (n *NoopMetricsProvider) IncrementActiveRuns(context.Context) {}

// DecrementActiveRuns is a no-op.
func (n *NoopMetricsProvider) DecrementActiveRuns(context.Context) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordTick(ctx context.Context, running int, duration time.Duration)
	RecordTransition(ctx context.Context, kind, fromState, toState string)
	RecordStep(ctx context.Context, kind string)
	RecordStoreWrite(ctx context.Context, store string, success bool)
	RecordError(ctx context.Context, errorType string)
	RecordRun(ctx context.Context, duration time.Duration, ticks int, status string)
	IncrementActiveRuns(ctx context.Context)
	DecrementActiveRuns(ctx context.Context)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
