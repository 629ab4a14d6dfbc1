package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Analysis Layer
	AnalysisRunsTotal        CounterVec
	AnalysisRunDuration      HistogramVec
	AnalysisProductCount     HistogramVec
	AnalysisBlueOceanCount   HistogramVec
	AnalysisOpportunityScore HistogramVec
	AnalysisInFlight         GaugeVec

	// Reporting Layer
	ReportsRenderedTotal CounterVec
	ReportUploadsTotal   CounterVec

	// Infrastructure Layer
	CacheHitsTotal         CounterVec
	CacheMissesTotal       CounterVec
	MessagesPublishedTotal CounterVec
	MessagesConsumedTotal  CounterVec
	MarketDataFetchTotal   CounterVec
	DBQueryDuration        HistogramVec

	// System Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalysisDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	DefaultCountBuckets            = []float64{0, 10, 25, 50, 100, 250, 500, 1000, 5000}
	DefaultScoreBuckets            = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	DefaultDBDurationBuckets       = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all metrics and returns AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	// Analysis
	m.AnalysisRunsTotal = collector.RegisterCounter("analysis_runs_total", "Analysis runs by outcome", "status", "cached")
	m.AnalysisRunDuration = collector.RegisterHistogram("analysis_run_duration_seconds", "Analysis run duration", DefaultAnalysisDurationBuckets, "source")
	m.AnalysisProductCount = collector.RegisterHistogram("analysis_product_count", "Products per analysis run", DefaultCountBuckets)
	m.AnalysisBlueOceanCount = collector.RegisterHistogram("analysis_blue_ocean_count", "Blue-ocean products per analysis run", DefaultCountBuckets)
	m.AnalysisOpportunityScore = collector.RegisterHistogram("analysis_opportunity_score", "Comprehensive opportunity score per run", DefaultScoreBuckets, "grade")
	m.AnalysisInFlight = collector.RegisterGauge("analysis_in_flight", "Analysis runs in progress", "source")

	// Reporting
	m.ReportsRenderedTotal = collector.RegisterCounter("reports_rendered_total", "Rendered reports", "format", "status")
	m.ReportUploadsTotal = collector.RegisterCounter("report_uploads_total", "Report uploads to object storage", "status")

	// Infrastructure
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.MessagesPublishedTotal = collector.RegisterCounter("messages_published_total", "Published messages", "topic", "status")
	m.MessagesConsumedTotal = collector.RegisterCounter("messages_consumed_total", "Consumed messages", "topic", "status")
	m.MarketDataFetchTotal = collector.RegisterCounter("marketdata_fetch_total", "Market data lookups", "status")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")

	// System Health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// NewNopAppMetrics returns metrics that record nothing.
func NewNopAppMetrics() *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:        nopCounterVec{},
		HTTPRequestDuration:      nopHistogramVec{},
		HTTPActiveRequests:       nopGaugeVec{},
		AnalysisRunsTotal:        nopCounterVec{},
		AnalysisRunDuration:      nopHistogramVec{},
		AnalysisProductCount:     nopHistogramVec{},
		AnalysisBlueOceanCount:   nopHistogramVec{},
		AnalysisOpportunityScore: nopHistogramVec{},
		AnalysisInFlight:         nopGaugeVec{},
		ReportsRenderedTotal:     nopCounterVec{},
		ReportUploadsTotal:       nopCounterVec{},
		CacheHitsTotal:           nopCounterVec{},
		CacheMissesTotal:         nopCounterVec{},
		MessagesPublishedTotal:   nopCounterVec{},
		MessagesConsumedTotal:    nopCounterVec{},
		MarketDataFetchTotal:     nopCounterVec{},
		DBQueryDuration:          nopHistogramVec{},
		HealthCheckStatus:        nopGaugeVec{},
		ErrorsTotal:              nopCounterVec{},
	}
}

// Helpers

// RunObservation summarises one finished analysis run.
type RunObservation struct {
	Source           string // "api", "cli" or "worker"
	Cached           bool
	Err              error
	Duration         time.Duration
	ProductCount     int
	BlueOceanCount   int
	OpportunityScore float64
	Grade            string
}

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordAnalysisRun(metrics *AppMetrics, obs RunObservation) {
	if metrics == nil {
		return
	}
	status := "success"
	if obs.Err != nil {
		status = "failure"
	}
	metrics.AnalysisRunsTotal.WithLabelValues(status, strconv.FormatBool(obs.Cached)).Inc()
	if obs.Err != nil {
		return
	}
	metrics.AnalysisRunDuration.WithLabelValues(obs.Source).Observe(obs.Duration.Seconds())
	if obs.Cached {
		return
	}
	metrics.AnalysisProductCount.WithLabelValues().Observe(float64(obs.ProductCount))
	metrics.AnalysisBlueOceanCount.WithLabelValues().Observe(float64(obs.BlueOceanCount))
	metrics.AnalysisOpportunityScore.WithLabelValues(obs.Grade).Observe(obs.OpportunityScore)
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if metrics == nil {
		return
	}
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordPublish(metrics *AppMetrics, topic string, err error) {
	if metrics == nil {
		return
	}
	metrics.MessagesPublishedTotal.WithLabelValues(topic, outcome(err)).Inc()
}

func RecordConsume(metrics *AppMetrics, topic string, err error) {
	if metrics == nil {
		return
	}
	metrics.MessagesConsumedTotal.WithLabelValues(topic, outcome(err)).Inc()
}

func RecordReport(metrics *AppMetrics, format string, err error) {
	if metrics == nil {
		return
	}
	metrics.ReportsRenderedTotal.WithLabelValues(format, outcome(err)).Inc()
}

func RecordUpload(metrics *AppMetrics, err error) {
	if metrics == nil {
		return
	}
	metrics.ReportUploadsTotal.WithLabelValues(outcome(err)).Inc()
}

func RecordMarketDataFetch(metrics *AppMetrics, found bool, err error) {
	if metrics == nil {
		return
	}
	status := outcome(err)
	if err == nil && !found {
		status = "not_found"
	}
	metrics.MarketDataFetchTotal.WithLabelValues(status).Inc()
}

func RecordDBQuery(metrics *AppMetrics, operation string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("postgres", "query_error").Inc()
	}
}

func RecordHealth(metrics *AppMetrics, component string, up bool) {
	if metrics == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	metrics.HealthCheckStatus.WithLabelValues(component).Set(v)
}

func RecordError(metrics *AppMetrics, component, errorType string) {
	if metrics == nil {
		return
	}
	metrics.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
