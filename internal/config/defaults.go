package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost         = "localhost"
	DefaultDBPort         = 5432
	DefaultDBUser         = "oceanscout"
	DefaultDBName         = "oceanscout"
	DefaultDBSSLMode      = "disable"
	DefaultDBMaxOpenConns = 10
	DefaultDBMaxIdleConns = 5

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisResultTTL = 6 * time.Hour
	DefaultRedisKeyPrefix = "oceanscout:"

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaClientID     = "oceanscout"
	DefaultKafkaBatchSize    = 100
	DefaultKafkaBatchTimeout = 100 * time.Millisecond
	DefaultKafkaMaxAttempts  = 3
	DefaultKafkaGroupID      = "oceanscout-worker"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "oceanscout-reports"
	DefaultMinIORegion   = "us-east-1"

	DefaultMarketDataTimeout    = 10 * time.Second
	DefaultMarketDataRetryCount = 2

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "oceanscout"
	DefaultMetricsPath      = "/metrics"

	DefaultReportOutputDir = "reports"
	DefaultReportFormat    = "csv"
	DefaultReportTopN      = 20
)

// Default returns a Config holding only defaults.  It validates.
func Default() *Config {
	cfg := &Config{Analysis: AnalysisConfig{ExcludeAnomalies: true}}
	ApplyDefaults(cfg)
	return cfg
}

// setDefaults registers the scalar defaults with v so that OCEANSCOUT_*
// variables resolve even when no config file names the key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultServerHost)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)

	v.SetDefault("database.postgres.enabled", false)
	v.SetDefault("database.postgres.host", DefaultDBHost)
	v.SetDefault("database.postgres.port", DefaultDBPort)
	v.SetDefault("database.postgres.user", DefaultDBUser)
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", DefaultDBName)
	v.SetDefault("database.postgres.sslmode", DefaultDBSSLMode)
	v.SetDefault("database.postgres.auto_migrate", false)

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.addr", DefaultRedisAddr)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("messaging.kafka.enabled", false)
	v.SetDefault("messaging.kafka.brokers", []string{DefaultKafkaBroker})

	v.SetDefault("storage.minio.enabled", false)
	v.SetDefault("storage.minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", DefaultMinIOBucket)
	v.SetDefault("storage.minio.use_ssl", false)

	v.SetDefault("marketdata.base_url", "")
	v.SetDefault("marketdata.api_key", "")

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("monitoring.prometheus.enabled", true)

	v.SetDefault("report.output_dir", DefaultReportOutputDir)
	v.SetDefault("report.default_format", DefaultReportFormat)

	v.SetDefault("analysis.as_of", "")
	v.SetDefault("analysis.exclude_anomalies", true)
}

// ApplyDefaults fills every zero-value field in cfg with its default.
// Fields already set are left unchanged so that explicit configuration
// always wins.  Analyzer thresholds are left zero: each analyzer applies its
// own defaults at construction.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	s := &cfg.Server
	if s.Host == "" {
		s.Host = DefaultServerHost
	}
	if s.Port == 0 {
		s.Port = DefaultServerPort
	}
	if s.Mode == "" {
		s.Mode = DefaultServerMode
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 15 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 60 * time.Second
	}
	if s.MaxBodySize == 0 {
		s.MaxBodySize = 16 << 20
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 10 * time.Second
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	pg := &cfg.Database.Postgres
	if pg.Host == "" {
		pg.Host = DefaultDBHost
	}
	if pg.Port == 0 {
		pg.Port = DefaultDBPort
	}
	if pg.User == "" {
		pg.User = DefaultDBUser
	}
	if pg.DBName == "" {
		pg.DBName = DefaultDBName
	}
	if pg.SSLMode == "" {
		pg.SSLMode = DefaultDBSSLMode
	}
	if pg.MaxOpenConns == 0 {
		pg.MaxOpenConns = DefaultDBMaxOpenConns
	}
	if pg.MaxIdleConns == 0 {
		pg.MaxIdleConns = DefaultDBMaxIdleConns
	}
	if pg.ConnMaxLifetime == 0 {
		pg.ConnMaxLifetime = 30 * time.Minute
	}
	if pg.ConnMaxIdleTime == 0 {
		pg.ConnMaxIdleTime = 5 * time.Minute
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	r := &cfg.Cache.Redis
	if r.Addr == "" {
		r.Addr = DefaultRedisAddr
	}
	if r.PoolSize == 0 {
		r.PoolSize = DefaultRedisPoolSize
	}
	if r.DialTimeout == 0 {
		r.DialTimeout = 5 * time.Second
	}
	if r.ReadTimeout == 0 {
		r.ReadTimeout = 3 * time.Second
	}
	if r.WriteTimeout == 0 {
		r.WriteTimeout = 3 * time.Second
	}
	if r.ResultTTL == 0 {
		r.ResultTTL = DefaultRedisResultTTL
	}
	if r.KeyPrefix == "" {
		r.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	k := &cfg.Messaging.Kafka
	if len(k.Brokers) == 0 {
		k.Brokers = []string{DefaultKafkaBroker}
	}
	if k.ClientID == "" {
		k.ClientID = DefaultKafkaClientID
	}
	if k.BatchSize == 0 {
		k.BatchSize = DefaultKafkaBatchSize
	}
	if k.BatchTimeout == 0 {
		k.BatchTimeout = DefaultKafkaBatchTimeout
	}
	if k.RequiredAcks == 0 {
		k.RequiredAcks = -1
	}
	if k.MaxAttempts == 0 {
		k.MaxAttempts = DefaultKafkaMaxAttempts
	}
	if k.GroupID == "" {
		k.GroupID = DefaultKafkaGroupID
	}
	if k.MaxRetries == 0 {
		k.MaxRetries = 3
	}
	if k.RetryBackoff == 0 {
		k.RetryBackoff = time.Second
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	m := &cfg.Storage.MinIO
	if m.Endpoint == "" {
		m.Endpoint = DefaultMinIOEndpoint
	}
	if m.Bucket == "" {
		m.Bucket = DefaultMinIOBucket
	}
	if m.Region == "" {
		m.Region = DefaultMinIORegion
	}
	if m.PresignExpiry == 0 {
		m.PresignExpiry = time.Hour
	}

	// ── Market data ───────────────────────────────────────────────────────────
	md := &cfg.MarketData
	if md.Timeout == 0 {
		md.Timeout = DefaultMarketDataTimeout
	}
	if md.RetryCount == 0 {
		md.RetryCount = DefaultMarketDataRetryCount
	}
	if md.RetryWaitTime == 0 {
		md.RetryWaitTime = 500 * time.Millisecond
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Monitoring ────────────────────────────────────────────────────────────
	p := &cfg.Monitoring.Prometheus
	if p.Namespace == "" {
		p.Namespace = DefaultMetricsNamespace
	}
	if p.Path == "" {
		p.Path = DefaultMetricsPath
	}

	// ── Report ────────────────────────────────────────────────────────────────
	rp := &cfg.Report
	if rp.OutputDir == "" {
		rp.OutputDir = DefaultReportOutputDir
	}
	if rp.DefaultFormat == "" {
		rp.DefaultFormat = DefaultReportFormat
	}
	if rp.TopN == 0 {
		rp.TopN = DefaultReportTopN
	}
}
