package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/testutil"
)

func TestMockLogger_RecordsCalls(t *testing.T) {
	log := testutil.NewMockLogger()
	log.Info("Analysis finished", logging.String("keyword", "yoga mat"))
	log.Fatal("Cannot start")

	entries := log.GetMessages()
	require.Len(t, entries, 2)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "Analysis finished", entries[0].Message)
	assert.True(t, log.HasMessage("fatal", "Cannot start"))
	assert.False(t, log.HasMessage("error", "Cannot start"))

	log.Clear()
	assert.Empty(t, log.GetMessages())
}

func TestMockLogger_DerivedLoggersShareSink(t *testing.T) {
	root := testutil.NewMockLogger()
	child := root.Named("analysis").With(logging.String("run_id", "r1")).Named("engine")
	child.Warn("Sparse data", logging.Int("products", 3), logging.String("run_id", "r2"))
	root.Debug("root only")

	e, ok := root.Find("warn", "Sparse data")
	require.True(t, ok)
	assert.Equal(t, "analysis.engine", e.Logger)
	assert.Len(t, e.Fields, 3)

	v, ok := e.Field("run_id")
	assert.True(t, ok)
	assert.Equal(t, "r2", v)
	v, _ = e.Field("products")
	assert.Equal(t, 3, v)
	_, ok = e.Field("missing")
	assert.False(t, ok)

	e, ok = root.Find("debug", "root only")
	require.True(t, ok)
	assert.Empty(t, e.Logger)
	assert.Empty(t, e.Fields)
	assert.Len(t, root.GetMessages(), 2)
}
