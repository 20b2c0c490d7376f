// Package telemetry configures OpenTelemetry tracing for the loginflow binaries.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrepbu/loginflow/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer used by the sign-in flow
const InstrumentationName = "github.com/emrepbu/loginflow"

// InitTracer installs a global tracer provider exporting over OTLP HTTP.
// An empty endpoint uses the exporter's environment defaults.
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	// OTLP HTTP exporter; plaintext to the local collector
	opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	// Every span carries the binary's service name
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Follow the caller's sampling decision, sample roots always
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	// Register globally so otelmux and Tracer() pick it up
	otel.SetTracerProvider(tp)

	// W3C trace context and baggage on incoming and outgoing requests
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// Tracer returns the sign-in flow tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// UserAttr is a span attribute carrying a sanitised user id
func UserAttr(userID string) attribute.KeyValue {
	return attribute.String("loginflow.user_id", logger.SanitizeUserID(userID))
}

// SetOutcome tags span with the outcome label also used for metrics. A
// non-nil err marks the span failed; its message is sanitised first since
// provider errors may echo the credential.
func SetOutcome(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String("loginflow.outcome", outcome))
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	msg := logger.SanitizeError(err)
	span.RecordError(errors.New(msg))
	span.SetStatus(codes.Error, msg)
}

// Shutdown flushes and stops the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
