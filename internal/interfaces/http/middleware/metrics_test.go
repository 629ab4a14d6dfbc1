package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/prometheus"
)

func httptestPost(h http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, r)
	return w
}

func scrape(t *testing.T, c prometheus.MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	raw, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	m := prometheus.NewAppMetrics(collector)
	e := newEngine(Metrics(m))

	serve(e, http.MethodGet, "/items/1", nil)
	serve(e, http.MethodGet, "/items/2", nil)
	serve(e, http.MethodGet, "/nowhere", nil)

	out := scrape(t, collector)
	assert.Contains(t, out, `test_http_requests_total{method="GET",path="/items/:id",status_code="200"} 2`)
	assert.Contains(t, out, `test_http_requests_total{method="GET",path="unmatched",status_code="404"} 1`)
	assert.Contains(t, out, `test_http_active_requests{method="GET"} 0`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	e := newEngine(Metrics(nil))
	w := serve(e, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	e = newEngine(Metrics(prometheus.NewNopAppMetrics()))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ping", nil).Code)
}
