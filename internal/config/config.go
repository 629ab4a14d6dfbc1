// Package config defines the configuration of the OceanScout CLI and API
// server.  Plain data types and validation live here; loading lives in
// loader.go and analyzer mapping in analysis.go.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSOrigins lists browser origins allowed to call the API, e.g.
	// "https://dash.example.com" or "https://*.example.com"; "*" allows any.
	// Empty disables CORS handling.
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// PostgresConfig holds PostgreSQL connection parameters.  A disabled
// database leaves the CLI working on inline datasets only.
type PostgresConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"` // source URL, e.g. file://migrations; empty uses the embedded set
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DatabaseConfig groups the relational stores.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig holds the result cache connection.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ResultTTL    time.Duration `mapstructure:"result_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig groups the caches.
type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// KafkaConfig holds the analysis event producer parameters.
type KafkaConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Brokers          []string      `mapstructure:"brokers"`
	ClientID         string        `mapstructure:"client_id"`
	TopicPrefix      string        `mapstructure:"topic_prefix"`
	BatchSize        int           `mapstructure:"batch_size"`
	BatchTimeout     time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks     int           `mapstructure:"required_acks"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	AutoCreateTopics bool          `mapstructure:"auto_create_topics"`
	GroupID          string        `mapstructure:"group_id"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
}

// MessagingConfig groups the brokers.
type MessagingConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// MinIOConfig holds the report object storage parameters.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// StorageConfig groups the object stores.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// MarketDataConfig points at the keyword market data feed.  An empty
// BaseURL disables remote lookups.
type MarketDataConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryCount    int           `mapstructure:"retry_count"`
	RetryWaitTime time.Duration `mapstructure:"retry_wait_time"`
}

// PrometheusConfig holds the metrics endpoint settings.
type PrometheusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// MonitoringConfig groups observability backends.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// ReportConfig holds report rendering defaults.
type ReportConfig struct {
	OutputDir     string `mapstructure:"output_dir"`
	DefaultFormat string `mapstructure:"default_format"` // "csv" | "xlsx"
	TopN          int    `mapstructure:"top_n"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration.  Every infrastructure component and the
// analysis service read their settings from the relevant sub-struct.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Database   DatabaseConfig    `mapstructure:"database"`
	Cache      CacheConfig       `mapstructure:"cache"`
	Messaging  MessagingConfig   `mapstructure:"messaging"`
	Storage    StorageConfig     `mapstructure:"storage"`
	MarketData MarketDataConfig  `mapstructure:"marketdata"`
	Log        logging.LogConfig `mapstructure:"log"`
	Monitoring MonitoringConfig  `mapstructure:"monitoring"`
	Report     ReportConfig      `mapstructure:"report"`
	Analysis   AnalysisConfig    `mapstructure:"analysis"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.  It
// returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	for _, o := range c.Server.CORSOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("config: server.cors_origins entry %q must be \"*\" or start with http:// or https://", o)
		}
	}

	if pg := c.Database.Postgres; pg.Enabled {
		if pg.Host == "" {
			return fmt.Errorf("config: database.postgres.host is required")
		}
		if pg.Port < 1 || pg.Port > 65535 {
			return fmt.Errorf("config: database.postgres.port %d is out of range [1, 65535]", pg.Port)
		}
		if pg.User == "" || pg.DBName == "" {
			return fmt.Errorf("config: database.postgres.user and dbname are required")
		}
		if pg.MaxOpenConns < 1 {
			return fmt.Errorf("config: database.postgres.max_open_conns must be ≥ 1, got %d", pg.MaxOpenConns)
		}
	}

	if r := c.Cache.Redis; r.Enabled {
		if r.Addr == "" {
			return fmt.Errorf("config: cache.redis.addr is required")
		}
		if r.DB < 0 {
			return fmt.Errorf("config: cache.redis.db must be ≥ 0, got %d", r.DB)
		}
	}

	if k := c.Messaging.Kafka; k.Enabled && len(k.Brokers) == 0 {
		return fmt.Errorf("config: messaging.kafka.brokers must contain at least one broker address")
	}

	if m := c.Storage.MinIO; m.Enabled {
		if m.Endpoint == "" || m.Bucket == "" {
			return fmt.Errorf("config: storage.minio.endpoint and bucket are required")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	switch c.Report.DefaultFormat {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("config: report.default_format %q is invalid; expected csv|xlsx", c.Report.DefaultFormat)
	}

	return c.Analysis.Validate()
}
