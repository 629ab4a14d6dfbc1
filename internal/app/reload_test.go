package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/testutil"
)

func TestWatchLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: \"warn\"\n"), 0o644))

	out := filepath.Join(t.TempDir(), "app.log")
	logger, err := logging.NewLogger(logging.LogConfig{Level: logging.LevelWarn, OutputPaths: []string{out}})
	require.NoError(t, err)
	require.NoError(t, WatchLogLevel(path, logger))

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: \"debug\"\n"), 0o644))
	assert.Eventually(t, func() bool {
		logging.Sync(logger)
		raw, _ := os.ReadFile(out)
		return bytes.Contains(raw, []byte(`"msg":"Log level changed"`))
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchLogLevel_InvalidChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: \"info\"\n"), 0o644))

	log := testutil.NewMockLogger()
	require.NoError(t, WatchLogLevel(path, log))

	require.NoError(t, os.WriteFile(path, []byte("server:\n  mode: \"bogus\"\n"), 0o644))
	assert.Eventually(t, func() bool {
		return log.HasMessage("warn", "Ignoring invalid configuration change")
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchLogLevel_Disabled(t *testing.T) {
	assert.NoError(t, WatchLogLevel("", logging.NewNopLogger()))
	assert.Error(t, WatchLogLevel(filepath.Join(t.TempDir(), "missing.yaml"), logging.NewNopLogger()))
}
