// Command apiserver serves the OceanScout REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/OceanScout/internal/app"
	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/OceanScout/internal/interfaces/http"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment and built-in defaults)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the configuration")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	flag.Parse()

	if err := run(*configPath, *envFile, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, port int) error {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logging.Sync(logger)
	logger.Info("Starting OceanScout API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()),
	)

	if err := app.WatchLogLevel(configPath, logger); err != nil {
		logger.Warn("Config watch disabled", logging.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, "api")
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Failed to close backends", logging.Err(err))
		}
	}()

	srv := httpserver.NewServerFromApp(a, version)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	return srv.Shutdown(context.Background())
}
