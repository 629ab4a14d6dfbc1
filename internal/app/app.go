// Package app assembles the OceanScout runtime from configuration: the
// optional backing stores, the analysis service and the report publisher.
// The CLI, the API server and the worker all start from New.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/application/reporting"
	"github.com/turtacn/OceanScout/internal/config"
	domainanalysis "github.com/turtacn/OceanScout/internal/domain/analysis"
	"github.com/turtacn/OceanScout/internal/domain/product"
	"github.com/turtacn/OceanScout/internal/infrastructure/database/postgres"
	"github.com/turtacn/OceanScout/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/OceanScout/internal/infrastructure/database/redis"
	"github.com/turtacn/OceanScout/internal/infrastructure/marketdata"
	"github.com/turtacn/OceanScout/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/OceanScout/internal/infrastructure/storage/minio"
	"github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

const healthTimeout = 3 * time.Second

// App is the assembled runtime.  Fields for disabled backends are nil.
type App struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Analysis analysis.Service
	Reports  *reporting.Publisher

	Postgres   *postgres.Connection
	Products   product.ProductRepository
	MarketData product.MarketDataRepository
	Runs       domainanalysis.RunRepository
	Redis      *redis.Client
	Producer   *kafka.Producer
	MinIO      *minio.Client

	pool    *pgxpool.Pool
	checks  []healthCheck
	closers []func() error
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// New connects every enabled backend and builds the services.  source labels
// run metrics ("cli", "api" or "worker").  On failure everything opened so
// far is closed.
func New(ctx context.Context, cfg *config.Config, log logging.Logger, source string) (a *App, err error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeValidation, "configuration is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	a = &App{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.initMetrics(); err != nil {
		return nil, err
	}
	if err := a.initPostgres(ctx); err != nil {
		return nil, err
	}
	if err := a.initRedis(); err != nil {
		return nil, err
	}
	if err := a.initKafka(); err != nil {
		return nil, err
	}
	if err := a.initMinIO(); err != nil {
		return nil, err
	}
	if err := a.initServices(source); err != nil {
		return nil, err
	}

	log.Info("Runtime initialized",
		logging.String("source", source),
		logging.Bool("postgres", a.Postgres != nil),
		logging.Bool("redis", a.Redis != nil),
		logging.Bool("kafka", a.Producer != nil),
		logging.Bool("minio", a.MinIO != nil),
		logging.Bool("metrics", a.Collector != nil),
	)
	return a, nil
}

// ---------------------------------------------------------------------------
// Backends
// ---------------------------------------------------------------------------

func (a *App) initMetrics() error {
	pc := a.Config.Monitoring.Prometheus
	if !pc.Enabled {
		a.Metrics = prometheus.NewNopAppMetrics()
		return nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfigFrom(pc), a.Logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	a.Collector = collector
	a.Metrics = prometheus.NewAppMetrics(collector)
	return nil
}

func (a *App) initPostgres(ctx context.Context) error {
	pc := a.Config.Database.Postgres
	if !pc.Enabled {
		return nil
	}
	conn, err := postgres.NewConnection(pc, a.Logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	a.Postgres = conn
	a.closers = append(a.closers, conn.Close)
	a.checks = append(a.checks, healthCheck{"postgres", conn.HealthCheck})

	if pc.AutoMigrate {
		if err := a.Migrator().Up(); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
	}

	a.Products = repositories.NewPostgresProductRepo(conn, a.Logger)
	a.MarketData = repositories.NewPostgresMarketDataRepo(conn, a.Logger)
	a.Runs = repositories.NewPostgresRunRepo(conn, a.Logger)
	return nil
}

func (a *App) initRedis() error {
	rc := a.Config.Cache.Redis
	if !rc.Enabled {
		return nil
	}
	client, err := redis.NewClient(rc, a.Logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	a.Redis = client
	a.closers = append(a.closers, client.Close)
	a.checks = append(a.checks, healthCheck{"redis", client.Ping})
	return nil
}

func (a *App) initKafka() error {
	kc := a.Config.Messaging.Kafka
	if !kc.Enabled {
		return nil
	}
	producer, err := kafka.NewProducer(kc, a.Logger)
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	a.Producer = producer
	a.closers = append(a.closers, producer.Close)
	return nil
}

func (a *App) initMinIO() error {
	mc := a.Config.Storage.MinIO
	if !mc.Enabled {
		return nil
	}
	client, err := minio.NewClient(mc, a.Logger)
	if err != nil {
		return fmt.Errorf("minio: %w", err)
	}
	a.MinIO = client
	a.closers = append(a.closers, client.Close)
	a.checks = append(a.checks, healthCheck{"minio", client.HealthCheck})
	return nil
}

// ---------------------------------------------------------------------------
// Services
// ---------------------------------------------------------------------------

func (a *App) initServices(source string) error {
	engine, err := analysis.NewEngine(a.Config.Analysis)
	if err != nil {
		return err
	}

	deps := analysis.Dependencies{
		Engine:     engine,
		Products:   a.Products,
		MarketData: a.MarketData,
		Runs:       a.Runs,
		Provider:   marketdata.New(a.Config.MarketData, a.Logger),
		Metrics:    a.Metrics,
		Logger:     a.Logger.Named("analysis"),
	}
	if a.Redis != nil {
		rc := a.Config.Cache.Redis
		deps.Cache = redis.NewRedisCache(a.Redis, a.Logger, redis.WithPrefix(rc.KeyPrefix))
		deps.Locker = redis.NewLockFactory(a.Redis, rc.KeyPrefix, a.Logger)
	}
	if a.Producer != nil {
		deps.Publisher = a.Producer
	}

	a.Analysis, err = analysis.NewService(deps, analysis.Options{
		Source:      source,
		ResultTTL:   a.Config.Cache.Redis.ResultTTL,
		TopicPrefix: a.Config.Messaging.Kafka.TopicPrefix,
	})
	if err != nil {
		return err
	}

	var store minio.ReportStore
	if a.MinIO != nil {
		store = minio.NewReportStore(a.MinIO, a.Logger)
	}
	a.Reports = reporting.NewPublisher(store, a.Metrics, a.Logger.Named("reporting"), reporting.PublisherOptions{
		TopN:          a.Config.Report.TopN,
		PresignExpiry: a.Config.Storage.MinIO.PresignExpiry,
	})
	return nil
}

// Migrator returns a migrator over the postgres connection, or nil when
// postgres is disabled.
func (a *App) Migrator() *postgres.Migrator {
	if a.Postgres == nil {
		return nil
	}
	return postgres.NewMigrator(a.Postgres, a.Config.Database.Postgres.MigrationPath, a.Logger)
}

// Importer opens the pgx pool on first use and returns a bulk importer.
func (a *App) Importer(ctx context.Context) (*postgres.BulkImporter, error) {
	if a.Postgres == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "postgres is not enabled")
	}
	if a.pool == nil {
		pool, err := postgres.NewPool(ctx, a.Config.Database.Postgres)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
	}
	return postgres.NewBulkImporter(a.pool, a.Logger), nil
}

// ---------------------------------------------------------------------------
// Health / shutdown
// ---------------------------------------------------------------------------

// Health probes every enabled backend.  Disabled backends are reported as
// such and do not affect the overall status.
func (a *App) Health(ctx context.Context) ([]common.ComponentHealth, common.HealthStatus) {
	components := make([]common.ComponentHealth, 0, len(a.checks)+3)
	for _, hc := range a.checks {
		cctx, cancel := context.WithTimeout(ctx, healthTimeout)
		start := time.Now()
		err := hc.check(cctx)
		cancel()

		ch := common.ComponentHealth{Name: hc.name, Status: common.HealthUp, LatencyMS: float64(time.Since(start).Microseconds()) / 1000}
		if err != nil {
			ch.Status = common.HealthDown
			ch.Message = err.Error()
		}
		prometheus.RecordHealth(a.Metrics, hc.name, err == nil)
		components = append(components, ch)
	}
	disabled := []struct {
		name string
		off  bool
	}{
		{"postgres", a.Postgres == nil},
		{"redis", a.Redis == nil},
		{"minio", a.MinIO == nil},
	}
	for _, d := range disabled {
		if d.off {
			components = append(components, common.ComponentHealth{Name: d.name, Status: common.HealthDisabled})
		}
	}
	return components, common.OverallHealth(components)
}

// Close releases every backend in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
