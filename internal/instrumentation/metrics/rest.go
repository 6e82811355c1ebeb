package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
)

const namespace = "searchgate"

// RestMetrics counts what the REST controller does with each request. It
// implements rest.Observer and NamedCollector.
type RestMetrics struct {
	dispatched *prometheus.CounterVec
	recovered  *prometheus.CounterVec
	responses  *prometheus.CounterVec
	cacheSize  prometheus.GaugeFunc
}

type RestMetricsOption func(*RestMetrics)

// WithParseCacheSize exports the number of cached media type parses.
func WithParseCacheSize(size func() int) RestMetricsOption {
	return func(m *RestMetrics) {
		m.cacheSize = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "media_type",
			Name:      "parse_cache_entries",
			Help:      "Number of header values in the media type parse cache",
		}, func() float64 { return float64(size()) })
	}
}

func NewRestMetrics(opts ...RestMetricsOption) *RestMetrics {
	m := &RestMetrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rest",
			Name:      "requests_total",
			Help:      "Requests by dispatch outcome and resolved API version",
		}, []string{"outcome", "version"}),
		recovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rest",
			Name:      "recoveries_total",
			Help:      "Malformed requests rebuilt without the offending input",
		}, []string{"kind"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rest",
			Name:      "responses_total",
			Help:      "Responses by HTTP status code",
		}, []string{"code"}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *RestMetrics) RequestDispatched(outcome string, version versioning.Version) {
	m.dispatched.WithLabelValues(outcome, version.String()).Inc()
}

func (m *RestMetrics) RequestRecovered(kind string) {
	m.recovered.WithLabelValues(kind).Inc()
}

func (m *RestMetrics) ResponseSent(status int) {
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (m *RestMetrics) MetricsName() string {
	return "rest"
}

func (m *RestMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.dispatched.Describe(ch)
	m.recovered.Describe(ch)
	m.responses.Describe(ch)
	if m.cacheSize != nil {
		m.cacheSize.Describe(ch)
	}
}

func (m *RestMetrics) Collect(ch chan<- prometheus.Metric) {
	m.dispatched.Collect(ch)
	m.recovered.Collect(ch)
	m.responses.Collect(ch)
	if m.cacheSize != nil {
		m.cacheSize.Collect(ch)
	}
}
