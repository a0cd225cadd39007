// Package telemetry instruments the spawn/wait lifecycle with
// OpenTelemetry: one span per leaf spawn and a duration histogram plus a
// running-process gauge. By default spans come from a tracer provider
// that samples nothing and exports nothing; EnableStdout swaps in one
// that exports finished spans to stdout. The tracer is taken directly
// from this package's own provider, so a provider installed later with
// otel.SetTracerProvider is not picked up. Metrics go through the
// global meter provider, so otel.SetMeterProvider does reach them.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/duskline/subprocess"

var (
	mu       sync.Mutex
	tracer   trace.Tracer
	meter    metric.Meter
	duration metric.Float64Histogram
	running  metric.Int64UpDownCounter
)

func init() {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(instrumentationName)
	meter = otel.GetMeterProvider().Meter(instrumentationName)
	duration, _ = meter.Float64Histogram(
		"subprocess.process.duration",
		metric.WithDescription("wall-clock duration of a leaf spawn, in seconds"),
		metric.WithUnit("s"),
	)
	running, _ = meter.Int64UpDownCounter(
		"subprocess.process.running",
		metric.WithDescription("number of processes currently associated with a live handle"),
	)
}

// EnableStdout swaps in a tracer provider that exports finished spans to
// stdout, useful for local debugging and for exercising the exporter
// dependency end to end.
func EnableStdout(ctx context.Context) (func(context.Context) error, error) {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))

	mu.Lock()
	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(instrumentationName)
	mu.Unlock()

	return tp.Shutdown, nil
}

// StartSpawn opens a span covering one leaf process's lifetime from just
// before the spawn call to the completion callback.
func StartSpawn(ctx context.Context, display string) (context.Context, trace.Span) {
	mu.Lock()
	t := tracer
	mu.Unlock()
	ctx, span := t.Start(ctx, "subprocess.spawn", trace.WithAttributes(
		attribute.String("subprocess.cmd", display),
	))
	running.Add(ctx, 1)
	return ctx, span
}

// EndSpawn closes the span started by StartSpawn, recording exit status.
func EndSpawn(ctx context.Context, span trace.Span, pid int, exitCode int64, seconds float64) {
	span.SetAttributes(
		attribute.Int("subprocess.pid", pid),
		attribute.Int64("subprocess.exit_code", exitCode),
	)
	duration.Record(ctx, seconds)
	running.Add(ctx, -1)
	span.End()
}
