package tracing

import (
	"context"
	"fmt"

	"github.com/searchgate/searchgate/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stoewer/go-strcase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultServiceName = "searchgate"

// InitTracer sets the global TracerProvider from cfg.Tracing, a no-op
// provider when tracing is disabled. The returned function flushes pending
// spans and should run on exit.
func InitTracer(log logrus.FieldLogger, cfg *config.Config, serviceName string) (func(context.Context) error, error) {
	if cfg.Tracing == nil || !cfg.Tracing.Enabled {
		log.Info("Tracing is disabled")
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(ctx context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{}
	if cfg.Tracing.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Tracing.Endpoint))
	}
	if cfg.Tracing.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing OTLP exporter: %w", err)
	}

	svc := defaultServiceName
	if serviceName != "" {
		svc = serviceName
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(svc),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Infof("Tracing initialized, exporting to %q", cfg.Tracing.Endpoint)
	return tp.Shutdown, nil
}

// StartSpan creates a new span using the global tracer provider.
// The span name is normalized to kebab-case.
func StartSpan(ctx context.Context, tracerName, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(tracerName)
	return tracer.Start(ctx, strcase.KebabCase(spanName), opts...)
}
