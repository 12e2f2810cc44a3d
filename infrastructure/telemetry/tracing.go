package telemetry

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	grpcinsecure "google.golang.org/grpc/credentials/insecure"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

const tracerName = "github.com/felixgeelhaar/droid-go"

// Tracer creates spans for runs and ticks.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from a provider. A nil provider yields a
// tracer whose spans are never recorded.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(tracerName)}
}

// StartRun opens the root span for a simulation run.
func (t *Tracer) StartRun(ctx context.Context, runID, scenario string, agents int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "droid.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.scenario", scenario),
			attribute.Int("run.agents", agents),
		),
	)
}

// StartTick opens a child span for one scheduler tick.
func (t *Tracer) StartTick(ctx context.Context, tick int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "droid.tick",
		trace.WithAttributes(attribute.Int("tick", tick)),
	)
}

// AddTransition attaches a routine transition to the span in ctx.
func AddTransition(ctx context.Context, tr routine.Transition) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("agent", tr.Agent),
		attribute.String("routine.kind", string(tr.Kind)),
		attribute.String("state.from", tr.From.String()),
		attribute.String("state.to", tr.To.String()),
	}
	if tr.Reason != "" {
		attrs = append(attrs, attribute.String("reason", tr.Reason))
	}
	span.AddEvent("routine.transition", trace.WithAttributes(attrs...))
}

// EndSpan finishes a span, marking it failed when err is non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceConfig configures an SDK trace provider.
type TraceConfig struct {
	ServiceName    string
	ServiceVersion string
	Output         io.Writer
	PrettyPrint    bool
	BatchTimeout   time.Duration
}

// NewStdoutProvider builds an SDK tracer provider that writes spans as JSON.
// Callers must Shutdown the provider to flush pending spans.
func NewStdoutProvider(cfg TraceConfig) (*sdktrace.TracerProvider, error) {
	opts := []stdouttrace.Option{}
	if cfg.Output != nil {
		opts = append(opts, stdouttrace.WithWriter(cfg.Output))
	}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}

	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, err
	}
	return newProvider(exporter, cfg), nil
}

// NewOTLPProvider builds an SDK tracer provider exporting to an OTLP gRPC
// collector at endpoint.
func NewOTLPProvider(ctx context.Context, cfg TraceConfig, endpoint string, insecure bool) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(endpoint),
	}
	if insecure {
		opts = append(opts,
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(grpcinsecure.NewCredentials())),
			otlptracegrpc.WithInsecure(),
		)
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return newProvider(exporter, cfg), nil
}

func newProvider(exporter sdktrace.SpanExporter, cfg TraceConfig) *sdktrace.TracerProvider {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "droid"
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = time.Second
	}

	// Not merged with resource.Default() to avoid schema URL conflicts.
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.BatchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
}
