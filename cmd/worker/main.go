// Command worker consumes analysis.requested events from kafka and runs the
// analyses.  Records that keep failing are dead-lettered.  A small HTTP
// server exposes the probes and metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/OceanScout/internal/app"
	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/OceanScout/internal/interfaces/http"
	"github.com/turtacn/OceanScout/internal/interfaces/http/handlers"
	"github.com/turtacn/OceanScout/internal/interfaces/http/middleware"
)

const defaultHealthPort = 8081

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment and built-in defaults)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the configuration")
	healthPort := flag.Int("health-port", defaultHealthPort, "port of the probe and metrics server (0 disables)")
	flag.Parse()

	if err := run(*configPath, *envFile, *healthPort); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, healthPort int) error {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Messaging.Kafka.Enabled {
		return fmt.Errorf("messaging.kafka.enabled must be true for the worker")
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logging.Sync(logger)
	logger = logger.Named("worker")
	if err := app.WatchLogLevel(configPath, logger); err != nil {
		logger.Warn("Config watch disabled", logging.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, "worker")
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Failed to close backends", logging.Err(err))
		}
	}()

	if a.Collector != nil {
		a.Collector.BuildInfo("worker", version)
	}

	topic := kafka.Topic(cfg.Messaging.Kafka.TopicPrefix, kafka.TopicAnalysisRequested)
	consumer, err := kafka.NewConsumer(cfg.Messaging.Kafka, []string{topic}, a.Producer, logger)
	if err != nil {
		return err
	}
	consumer.Subscribe(topic, analysis.RequestHandler(a.Analysis, a.Metrics, logger))
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error("Failed to close consumer", logging.Err(err))
		}
		logger.Info("Worker stopped",
			logging.Int64("processed", consumer.Processed()),
			logging.Int64("dead_lettered", consumer.DeadLettered()),
		)
	}()

	var srv *httpserver.Server
	errCh := make(chan error, 1)
	if healthPort > 0 {
		srv = healthServer(a, healthPort)
		go func() { errCh <- srv.Start() }()
	}
	logger.Info("Worker started", logging.String("topic", topic), logging.String("version", version))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	if srv != nil {
		return srv.Shutdown(context.Background())
	}
	return nil
}

// healthServer serves /healthz, /readyz and /metrics only.
func healthServer(a *app.App, port int) *httpserver.Server {
	routes := httpserver.RouterConfig{
		Mode:          a.Config.Server.Mode,
		HealthHandler: handlers.NewHealthHandler(version, a.Health),
		Logging:       middleware.DefaultLoggingConfig(),
		Logger:        a.Logger,
		Metrics:       a.Metrics,
	}
	if a.Collector != nil {
		routes.MetricsHandler = a.Collector.Handler()
	}
	serverCfg := a.Config.Server
	serverCfg.Port = port
	return httpserver.NewServer(serverCfg, httpserver.NewRouter(routes), a.Logger)
}
