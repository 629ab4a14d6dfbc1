// Package http serves the OceanScout REST API on gin.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/OceanScout/internal/interfaces/http/handlers"
	"github.com/turtacn/OceanScout/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware settings of the route
// tree.  Nil handlers leave their routes unregistered.
type RouterConfig struct {
	// Mode is the gin mode: debug, release or test.
	Mode string

	AnalysisHandler *handlers.AnalysisHandler
	ReportHandler   *handlers.ReportHandler
	HealthHandler   *handlers.HealthHandler

	CORS        *middleware.CORSConfig
	Logging     middleware.LoggingConfig
	MaxBodySize int64

	Logger         logging.Logger
	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler
}

// NewRouter builds the route tree: global middleware, the public probe and
// metrics endpoints, and the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(logger, cfg.Logging))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.BodyLimit(cfg.MaxBodySize))

	if h := cfg.HealthHandler; h != nil {
		r.GET("/healthz", h.Liveness)
		r.GET("/readyz", h.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	registerAnalysisRoutes(api, cfg.AnalysisHandler)
	registerReportRoutes(api, cfg.ReportHandler)

	r.NoRoute(handlers.NoRoute)
	r.NoMethod(handlers.NoMethod)

	return r
}

// registerAnalysisRoutes mounts the analysis endpoints.
func registerAnalysisRoutes(r *gin.RouterGroup, h *handlers.AnalysisHandler) {
	if h == nil {
		return
	}
	r.POST("/analyses", h.Run)
	r.POST("/analyses/async", h.Enqueue)
	r.GET("/analyses/:id", h.Get)
	r.GET("/keywords/:keyword/analysis", h.Latest)
	r.POST("/compare", h.Compare)
}

// registerReportRoutes mounts the report export endpoints.
func registerReportRoutes(r *gin.RouterGroup, h *handlers.ReportHandler) {
	if h == nil {
		return
	}
	r.GET("/analyses/:id/report", h.Download)
	r.POST("/analyses/:id/report", h.Publish)
	r.GET("/keywords/:keyword/report", h.DownloadLatest)
}
