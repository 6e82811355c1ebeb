package metrics

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/samber/lo"
	"github.com/searchgate/searchgate/internal/config"
	"github.com/searchgate/searchgate/internal/instrumentation/tracing"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	metricsPath   = "/metrics"
	tracerName    = "searchgate/metrics"
	shutdownGrace = 5 * time.Second
)

// NamedCollector is a Prometheus collector with a short name, used to label
// scrape spans and registration errors.
type NamedCollector interface {
	prometheus.Collector
	MetricsName() string
}

// Collectors are the metric sources the metrics endpoint exposes. Nil
// members are skipped.
type Collectors struct {
	Rest   *RestMetrics
	HTTP   *HTTPMetricsCollector
	System *SystemCollector
}

func (c Collectors) named() []NamedCollector {
	var named []NamedCollector
	if c.Rest != nil {
		named = append(named, c.Rest)
	}
	if c.HTTP != nil {
		named = append(named, c.HTTP)
	}
	if c.System != nil {
		named = append(named, c.System)
	}
	return named
}

// Registry registers every collector in a fresh registry. A collector whose
// metrics clash with an earlier one is an error naming both.
func Registry(collectors ...NamedCollector) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering %s metrics: %w", c.MetricsName(), err)
		}
	}
	return registry, nil
}

type MetricsServer struct {
	log     logrus.FieldLogger
	address string
	handler http.Handler
}

// NewMetricsServer validates the metrics section of cfg and prepares the
// scrape endpoint for collectors.
func NewMetricsServer(log logrus.FieldLogger, cfg *config.Config, collectors Collectors) (*MetricsServer, error) {
	if cfg == nil || cfg.Metrics == nil {
		return nil, errors.New("metrics configuration is missing")
	}
	if !cfg.Metrics.Enabled {
		return nil, errors.New("metrics server is disabled by configuration")
	}

	named := collectors.named()
	registry, err := Registry(named...)
	if err != nil {
		return nil, err
	}
	names := lo.Map(named, func(c NamedCollector, _ int) string { return c.MetricsName() })

	return &MetricsServer{
		log:     log,
		address: cfg.Metrics.Address,
		handler: otelhttp.NewHandler(NewHandler(registry, names...), "metrics-http-server", otelhttp.WithPublicEndpoint()),
	}, nil
}

func (m *MetricsServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, m.handler)

	srv := &http.Server{
		Addr:              m.address,
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	go func() {
		<-ctx.Done()
		m.log.WithError(ctx.Err()).Info("Stopping metrics server")
		ctxTimeout, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctxTimeout); err != nil {
			m.log.WithError(err).Warn("Metrics server shutdown error")
		}
	}()

	m.log.Infof("Metrics listening on %s%s", m.address, metricsPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewHandler serves the metrics of gatherer in the exposition format the
// scraper negotiates, gzip compressed when it accepts that. Every scrape is
// traced; names label the span with the collectors behind gatherer.
func NewHandler(gatherer prometheus.Gatherer, names ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, span := tracing.StartSpan(r.Context(), tracerName, "scrape")
		defer span.End()
		span.SetAttributes(attribute.StringSlice("metrics.collectors", names))

		families, err := gatherer.Gather()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			http.Error(w, fmt.Sprintf("failed to gather metrics: %v", err), http.StatusInternalServerError)
			return
		}
		span.SetAttributes(attribute.Int("metrics.families", len(families)))

		format := expfmt.Negotiate(r.Header)
		w.Header().Set("Content-Type", string(format))

		var out io.Writer = w
		if acceptsGzip(r.Header) {
			w.Header().Set("Content-Encoding", "gzip")
			zw := gzip.NewWriter(w)
			defer zw.Close()
			out = zw
		}

		enc := expfmt.NewEncoder(out, format)
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				// headers are gone by now; the scraper sees a truncated body
				span.SetStatus(codes.Error, err.Error())
				return
			}
		}
		if closer, ok := enc.(expfmt.Closer); ok {
			_ = closer.Close()
		}
	})
}

func acceptsGzip(header http.Header) bool {
	for _, part := range strings.Split(header.Get("Accept-Encoding"), ",") {
		coding, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(coding) == "gzip" {
			return true
		}
	}
	return false
}
