package metrics

import (
	"context"
	"time"

	"github.com/mackerelio/go-osstat/cpu"
	"github.com/mackerelio/go-osstat/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/searchgate/searchgate/internal/config"
	"golang.org/x/sys/unix"
)

const defaultSystemTickerInterval = 5 * time.Second

// SystemCollector implements NamedCollector and samples host CPU, memory and
// root filesystem utilization as ratios between 0 and 1.
type SystemCollector struct {
	cpuGauge  prometheus.Gauge
	memGauge  prometheus.Gauge
	diskGauge prometheus.Gauge

	lastIdle  uint64
	lastTotal uint64
	interval  time.Duration
}

// NewSystemCollector starts sampling until ctx is done.
func NewSystemCollector(ctx context.Context, cfg *config.SystemCollectorConfig) *SystemCollector {
	interval := defaultSystemTickerInterval
	if cfg != nil && cfg.TickerInterval > 0 {
		interval = time.Duration(cfg.TickerInterval)
	}

	c := &SystemCollector{
		cpuGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_utilization",
			Help:      "Host CPU utilization ratio",
		}),
		memGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_utilization",
			Help:      "Host memory utilization ratio",
		}),
		diskGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disk_utilization",
			Help:      "Root filesystem utilization ratio",
		}),
		interval: interval,
	}

	go c.run(ctx)
	return c
}

func (c *SystemCollector) MetricsName() string {
	return "system"
}

func (c *SystemCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpuGauge.Desc()
	ch <- c.memGauge.Desc()
	ch <- c.diskGauge.Desc()
}

// Collect reads the gauges, which are safe for concurrent use.
func (c *SystemCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- c.cpuGauge
	ch <- c.memGauge
	ch <- c.diskGauge
}

func (c *SystemCollector) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

// sample only runs on the collector goroutine.
func (c *SystemCollector) sample() {
	if stats, err := cpu.Get(); err == nil {
		if c.lastTotal != 0 && stats.Total > c.lastTotal {
			deltaIdle := stats.Idle - c.lastIdle
			deltaTotal := stats.Total - c.lastTotal
			c.cpuGauge.Set(1.0 - float64(deltaIdle)/float64(deltaTotal))
		}
		c.lastIdle = stats.Idle
		c.lastTotal = stats.Total
	}

	if stats, err := memory.Get(); err == nil && stats.Total > 0 {
		c.memGauge.Set(float64(stats.Used) / float64(stats.Total))
	}

	var stat unix.Statfs_t
	if err := unix.Statfs("/", &stat); err == nil && stat.Blocks > 0 {
		c.diskGauge.Set(1.0 - float64(stat.Bfree)/float64(stat.Blocks))
	}
}
