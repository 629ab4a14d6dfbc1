package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"cors origin without scheme", func(c *Config) { c.Server.CORSOrigins = []string{"*.example.com"} }, "server.cors_origins"},
		{"cors wildcard subdomain", func(c *Config) { c.Server.CORSOrigins = []string{"https://*.example.com", "*"} }, ""},
		{"postgres without host", func(c *Config) {
			c.Database.Postgres.Enabled = true
			c.Database.Postgres.Host = ""
		}, "database.postgres.host"},
		{"disabled postgres is not checked", func(c *Config) { c.Database.Postgres.Host = "" }, ""},
		{"redis negative db", func(c *Config) {
			c.Cache.Redis.Enabled = true
			c.Cache.Redis.DB = -1
		}, "cache.redis.db"},
		{"kafka without brokers", func(c *Config) {
			c.Messaging.Kafka.Enabled = true
			c.Messaging.Kafka.Brokers = nil
		}, "messaging.kafka.brokers"},
		{"minio without bucket", func(c *Config) {
			c.Storage.MinIO.Enabled = true
			c.Storage.MinIO.Bucket = ""
		}, "storage.minio"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "text" }, "log.format"},
		{"bad report format", func(c *Config) { c.Report.DefaultFormat = "pdf" }, "report.default_format"},
		{"bad as_of", func(c *Config) { c.Analysis.AsOf = "30/06/2024" }, "analysis.as_of"},
		{"bad preset", func(c *Config) { c.Analysis.Scoring.DimensionPreset = "greedy" }, "dimension_preset"},
		{"bad blue ocean band", func(c *Config) {
			c.Analysis.BlueOcean.MinReviews, c.Analysis.BlueOcean.MaxReviews = 600, 500
		}, "analysis.blue_ocean"},
		{"bad scoring weights", func(c *Config) {
			c.Analysis.Scoring.ProductWeights = WeightSettings{"sales": 0.9, "rating": 0.9}
		}, "analysis.scoring"},
		{"bad competitor thresholds", func(c *Config) {
			c.Analysis.Competitor.ModerateConcentration = 90
		}, "analysis.competitor"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
