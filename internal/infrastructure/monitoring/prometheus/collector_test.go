package prometheus

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestCollectorConfigFrom(t *testing.T) {
	cfg := CollectorConfigFrom(config.PrometheusConfig{Namespace: "oceanscout"})
	assert.Equal(t, "oceanscout", cfg.Namespace)
	assert.True(t, cfg.RuntimeMetrics)
}

func TestNewMetricsCollector_RuntimeMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", RuntimeMetrics: true}, nil)
	require.NoError(t, err)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "go_goroutines")

	assert.NotContains(t, scrapeMetrics(t, newTestCollector(t)), "go_goroutines")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("lookups_total", "Lookups", "status").WithLabelValues("hit").Add(3)

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_lookups_total{status="hit"} 3`)
}

func TestRegisterCounter_SameNameReturnsFirstVector(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("lookups_total", "Lookups", "status").WithLabelValues("hit").Inc()
	c.RegisterCounter("lookups_total", "Lookups again", "status").WithLabelValues("hit").Inc()

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_lookups_total{status="hit"} 2`)
}

func TestRegister_TypeMismatchFallsBackToNop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("runs", "Runs").WithLabelValues().Inc()

	g := c.RegisterGauge("runs", "Runs as gauge")
	assert.IsType(t, nopGaugeVec{}, g)
	g.WithLabelValues().Set(42)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "test_unit_runs 1")
	assert.NotContains(t, out, "test_unit_runs 42")
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("in_flight", "In flight", "source").WithLabelValues("cli")
	g.Set(5)
	g.Inc()
	g.Dec()
	g.Add(-2)

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_in_flight{source="cli"} 3`)
}

func TestRegisterHistogram_Buckets(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterHistogram("default_seconds", "Default buckets", nil).WithLabelValues().Observe(0.2)
	c.RegisterHistogram("score", "Custom buckets", []float64{50, 100}).WithLabelValues().Observe(70)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_default_seconds_bucket{le="0.25"} 1`)
	assert.Contains(t, out, `test_unit_score_bucket{le="50"} 0`)
	assert.Contains(t, out, `test_unit_score_bucket{le="100"} 1`)
	assert.NotContains(t, out, `test_unit_score_bucket{le="0.25"}`)
}

func TestBuildInfo(t *testing.T) {
	c := newTestCollector(t)
	c.BuildInfo("api", "1.2.3")

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_build_info{component="api",version="1.2.3"} 1`)
}

func TestConstLabels(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{
		Namespace:   "test",
		ConstLabels: map[string]string{"env": "ci"},
	}, nil)
	require.NoError(t, err)
	c.RegisterCounter("hits_total", "Hits").WithLabelValues().Inc()

	assert.Contains(t, scrapeMetrics(t, c), `test_hits_total{env="ci"} 1`)
}

func TestConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.RegisterCounter("shared_total", "Shared", "worker").WithLabelValues(fmt.Sprint(i % 2)).Inc()
		}(i)
	}
	wg.Wait()

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_shared_total{worker="0"} 10`)
	assert.Contains(t, out, `test_unit_shared_total{worker="1"} 10`)
}

func TestNopVectors(t *testing.T) {
	assert.NotPanics(t, func() {
		nopCounterVec{}.WithLabelValues("a", "b").Add(1)
		nopGaugeVec{}.WithLabelValues().Dec()
		nopHistogramVec{}.WithLabelValues("x").Observe(1)
	})
}
