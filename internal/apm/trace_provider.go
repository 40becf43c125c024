package apm

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// Provider names a span exporter backend.
type Provider string

const (
	ConsoleProvider  Provider = "console"
	OTLPProvider     Provider = "otlp"
	OTLPHTTPProvider Provider = "otlphttp"
	ZipkinProvider   Provider = "zipkin"
	EmptyProvider    Provider = "empty"
)

// TraceProvider owns the tracer provider lifecycle.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// NewTraceProvider builds an exporter for the named provider, installs it as
// the global tracer provider and returns its lifecycle handle. Unknown
// providers fall back to a no-op tracer.
func NewTraceProvider(provider Provider, endpoint, serviceName string) (TraceProvider, error) {
	var (
		exp sdktrace.SpanExporter
		err error
	)

	ctx := context.Background()
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	switch provider {
	case ConsoleProvider:
		exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case OTLPProvider:
		exp, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(endpoint))
	case OTLPHTTPProvider:
		exp, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	case ZipkinProvider:
		exp, err = zipkin.New(endpoint)
	default:
		return NewEmptyTraceProvider(), nil
	}
	if err != nil {
		return nil, err
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("otel.provider", string(provider)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	return o.tp.Shutdown(ctx)
}

type emptyTraceProvider struct{}

// NewEmptyTraceProvider returns a no-op lifecycle handle; spans go nowhere.
func NewEmptyTraceProvider() TraceProvider {
	return emptyTraceProvider{}
}

func (emptyTraceProvider) Stop() error { return nil }
