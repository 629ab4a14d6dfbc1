package app

import (
	"github.com/turtacn/OceanScout/internal/config"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
)

// WatchLogLevel follows log.level in the configuration file at path and
// applies changes to logger without a restart.  Other keys need a restart.
// An empty path disables watching.
func WatchLogLevel(path string, logger logging.Logger) error {
	if path == "" {
		return nil
	}
	return config.Watch(path,
		func(c *config.Config) {
			if logging.SetLevel(logger, c.Log.Level) {
				logger.Info("Log level changed", logging.String("level", c.Log.Level))
			}
		},
		func(err error) {
			logger.Warn("Ignoring invalid configuration change", logging.String("path", path), logging.Err(err))
		},
	)
}
