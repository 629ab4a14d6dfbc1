// Package prometheus registers the OceanScout metrics on a private registry
// and serves them in the Prometheus exposition format.
package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// MetricsCollector owns the registry the OceanScout metrics live on.
// Registering a name twice returns the first vector, so components may
// register the metrics they use independently.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	// BuildInfo sets the constant build_info gauge of a binary.
	BuildInfo(component, version string)
	Handler() http.Handler
}

type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
	Add(delta float64)
}

type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

type Histogram interface {
	Observe(value float64)
}

// CollectorConfig configures a MetricsCollector.  Namespace is required.
type CollectorConfig struct {
	Namespace string
	Subsystem string
	// RuntimeMetrics adds the Go runtime and process collectors.
	RuntimeMetrics bool
	// Buckets is used by histograms registered without their own buckets.
	Buckets     []float64
	ConstLabels map[string]string
}

// CollectorConfigFrom maps the monitoring.prometheus section.  Binaries
// always export runtime metrics.
func CollectorConfigFrom(cfg config.PrometheusConfig) CollectorConfig {
	return CollectorConfig{Namespace: cfg.Namespace, RuntimeMetrics: true}
}

type collector struct {
	cfg      CollectorConfig
	registry *prometheus.Registry
	logger   logging.Logger

	mu      sync.Mutex
	metrics map[string]prometheus.Collector
}

// NewMetricsCollector creates a collector on a fresh registry.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, errors.New(errors.ErrCodeValidation, "metrics namespace is required")
	}
	if cfg.Buckets == nil {
		cfg.Buckets = prometheus.DefBuckets
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	registry := prometheus.NewRegistry()
	if cfg.RuntimeMetrics {
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: cfg.Namespace}),
		)
	}
	return &collector{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		metrics:  make(map[string]prometheus.Collector),
	}, nil
}

func (c *collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (c *collector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec, ok := register(c, name, "counter", prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem, Name: name, Help: help,
		ConstLabels: c.cfg.ConstLabels,
	}, labels))
	if !ok {
		return nopCounterVec{}
	}
	return counterVec{vec}
}

func (c *collector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec, ok := register(c, name, "gauge", prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem, Name: name, Help: help,
		ConstLabels: c.cfg.ConstLabels,
	}, labels))
	if !ok {
		return nopGaugeVec{}
	}
	return gaugeVec{vec}
}

func (c *collector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = c.cfg.Buckets
	}
	vec, ok := register(c, name, "histogram", prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem, Name: name, Help: help,
		ConstLabels: c.cfg.ConstLabels, Buckets: buckets,
	}, labels))
	if !ok {
		return nopHistogramVec{}
	}
	return histogramVec{vec}
}

func (c *collector) BuildInfo(component, version string) {
	c.RegisterGauge("build_info", "Build information of the running binary.", "component", "version").
		WithLabelValues(component, version).Set(1)
}

// register adds vec under name, or returns the vector already registered
// under that name.  ok is false when registration fails or the existing
// metric has another type; callers then fall back to a no-op vector.
func register[V prometheus.Collector](c *collector, name, kind string, vec V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fq := prometheus.BuildFQName(c.cfg.Namespace, c.cfg.Subsystem, name)
	if existing, found := c.metrics[fq]; found {
		v, ok := existing.(V)
		if !ok {
			c.logger.Warn("Metric registered with another type", logging.String("name", fq), logging.String("type", kind))
		}
		return v, ok
	}
	if err := c.registry.Register(vec); err != nil {
		c.logger.Error("Failed to register metric", logging.String("name", fq), logging.String("type", kind), logging.Err(err))
		return vec, false
	}
	c.metrics[fq] = vec
	return vec, true
}

type counterVec struct{ *prometheus.CounterVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter {
	return v.CounterVec.WithLabelValues(lvs...)
}

type gaugeVec struct{ *prometheus.GaugeVec }

func (v gaugeVec) WithLabelValues(lvs ...string) Gauge { return v.GaugeVec.WithLabelValues(lvs...) }

type histogramVec struct{ *prometheus.HistogramVec }

func (v histogramVec) WithLabelValues(lvs ...string) Histogram {
	return v.HistogramVec.WithLabelValues(lvs...)
}

// nopMetric satisfies Counter, Gauge and Histogram.
type nopMetric struct{}

func (nopMetric) Inc()            {}
func (nopMetric) Dec()            {}
func (nopMetric) Add(float64)     {}
func (nopMetric) Set(float64)     {}
func (nopMetric) Observe(float64) {}

type nopCounterVec struct{}

func (nopCounterVec) WithLabelValues(...string) Counter { return nopMetric{} }

type nopGaugeVec struct{}

func (nopGaugeVec) WithLabelValues(...string) Gauge { return nopMetric{} }

type nopHistogramVec struct{}

func (nopHistogramVec) WithLabelValues(...string) Histogram { return nopMetric{} }
