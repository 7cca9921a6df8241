// Package telemetry configures OpenTelemetry tracing for the process.
// Grounded on manifold/internal/observability/otel.go's InitOTel, narrowed
// to the tracing half: job trace ids are the one thing SPEC_FULL.md asks
// for (the job view's trace_id field), and metrics already have a sink in
// internal/llmrouter's ClickHouse usage writer, so the metrics exporter and host
// instrumentation InitOTel also sets up are not duplicated here.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "synapse/jobs"

// Init installs the global TracerProvider used to mint job trace ids. With
// otlpEndpoint empty it registers a provider with no exporter: spans are
// sampled and given real trace/span ids (so jobs.Store.Create has
// something genuine to report) but never leave the process, which keeps
// the jobs package usable in tests and in deployments with no collector.
// With otlpEndpoint set, spans additionally batch-export over OTLP/HTTP,
// matching the teacher's production wiring. Returns a shutdown func.
func Init(ctx context.Context, serviceName, otlpEndpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("telemetry: init resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if otlpEndpoint != "" {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(otlpEndpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("telemetry: init trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

// Tracer returns the tracer jobs.Store uses to derive trace ids.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
