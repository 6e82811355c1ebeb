package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

// HTTPMetricsCollector implements NamedCollector and exposes the
// OpenTelemetry HTTP server metrics recorded by otelhttp through Prometheus.
type HTTPMetricsCollector struct {
	registry      *prometheus.Registry
	meterProvider *metric.MeterProvider
	log           logrus.FieldLogger
}

// NewHTTPMetricsCollector installs a meter provider backed by a Prometheus
// exporter as the global provider, unless an SDK provider is already set.
func NewHTTPMetricsCollector(serviceName string, log logrus.FieldLogger) (*HTTPMetricsCollector, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprometheus.New(
		otelprometheus.WithRegisterer(registry),
		otelprometheus.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, err
	}

	mp := metric.NewMeterProvider(
		metric.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
		metric.WithReader(exporter),
	)

	if _, ok := otel.GetMeterProvider().(*metric.MeterProvider); !ok {
		otel.SetMeterProvider(mp)
	} else {
		log.Warn("Global meter provider already set, using existing provider")
	}

	return &HTTPMetricsCollector{
		registry:      registry,
		meterProvider: mp,
		log:           log,
	}, nil
}

// MeterProvider returns the provider whose instruments this collector exports.
func (c *HTTPMetricsCollector) MeterProvider() *metric.MeterProvider {
	return c.meterProvider
}

func (c *HTTPMetricsCollector) MetricsName() string {
	return "http"
}

func (c *HTTPMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.registry.Describe(ch)
}

func (c *HTTPMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	c.registry.Collect(ch)
}

// Shutdown flushes and stops the meter provider.
func (c *HTTPMetricsCollector) Shutdown(ctx context.Context) error {
	if err := c.meterProvider.Shutdown(ctx); err != nil {
		c.log.WithError(err).Error("Failed to shutdown OpenTelemetry HTTP metrics")
		return err
	}
	c.log.Info("OpenTelemetry HTTP metrics shutdown successfully")
	return nil
}
