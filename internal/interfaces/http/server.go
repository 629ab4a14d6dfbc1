package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/turtacn/OceanScout/internal/app"
	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/application/reporting"
	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/interfaces/http/handlers"
	"github.com/turtacn/OceanScout/internal/interfaces/http/middleware"
)

// Server wraps http.Server with the logging and shutdown behaviour of the
// API process.
type Server struct {
	srv             *http.Server
	handler         http.Handler
	shutdownTimeout time.Duration
	logger          logging.Logger
}

// NewServer creates a server for handler on cfg.Addr().
func NewServer(cfg config.ServerConfig, handler http.Handler, logger logging.Logger) *Server {
	return &Server{
		handler:         handler,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// NewServerFromApp wires the handlers of a runtime into a server.
func NewServerFromApp(a *app.App, version string) *Server {
	cfg := a.Config
	log := a.Logger.Named("http")
	var queue analysis.EventPublisher
	if a.Producer != nil {
		queue = a.Producer
	}
	routes := RouterConfig{
		Mode:            cfg.Server.Mode,
		HealthHandler:   handlers.NewHealthHandler(version, a.Health),
		AnalysisHandler: handlers.NewAnalysisHandler(a.Analysis, queue, cfg.Messaging.Kafka.TopicPrefix, log),
		ReportHandler:   handlers.NewReportHandler(a.Analysis, a.Reports, reporting.Format(cfg.Report.DefaultFormat), log),
		Logging:         middleware.DefaultLoggingConfig(),
		MaxBodySize:     cfg.Server.MaxBodySize,
		Logger:          log,
		Metrics:         a.Metrics,
	}
	if a.Collector != nil {
		a.Collector.BuildInfo("api", version)
		routes.MetricsHandler = a.Collector.Handler()
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSOrigins
		routes.CORS = &cors
	}
	return NewServer(cfg.Server, NewRouter(routes), a.Logger)
}

// Start serves until Shutdown.  It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", logging.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, waiting at most the configured
// shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.srv.Addr }

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }
