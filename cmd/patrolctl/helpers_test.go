package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateschmiedehaus/indexer-patrol/internal/config"
	"github.com/nateschmiedehaus/indexer-patrol/internal/retention"
	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

func TestPassLabel(t *testing.T) {
	assert.Equal(t, "pass", passLabel(true))
	assert.Equal(t, "fail", passLabel(false))
}

func TestVariantForIndex_Rotates(t *testing.T) {
	assert.Equal(t, types.TaskExplore, variantForIndex(0))
	assert.Equal(t, types.TaskGuided, variantForIndex(1))
	assert.Equal(t, types.TaskConstruction, variantForIndex(2))
	assert.Equal(t, types.TaskExplore, variantForIndex(3))
}

func TestPromptFor_EndsWithObservationMarkers(t *testing.T) {
	for _, v := range taskVariantOrder {
		p := promptFor(v)
		assert.Contains(t, p, "===PATROL_OBSERVATION_START===")
		assert.Contains(t, p, "===PATROL_OBSERVATION_END===")
	}
}

func TestComputeStorageTelemetry_SumsFileSizes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("12345"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.json"), []byte("12"), 0o644))

	telemetry := computeStorageTelemetry(dir)
	assert.Equal(t, int64(7), telemetry.TotalBytes)
	assert.Equal(t, 2, telemetry.EntryCount)
}

func TestLimitsFromConfig_NoCapsLeavesDefaults(t *testing.T) {
	limits, err := limitsFromConfig(&config.Config{})
	require.NoError(t, err)
	assert.Equal(t, retention.DefaultLimits(), limits)
}

func TestLimitsFromConfig_AppliesAgeAndCountCaps(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{CapAgeHours: 5, CapEntries: 3}}
	limits, err := limitsFromConfig(cfg)
	require.NoError(t, err)

	reportLimits := limits[retention.ClassPatrolReports]
	assert.Equal(t, 5*3600, int(reportLimits.MaxAge.Seconds()))
	assert.Equal(t, 3, reportLimits.MaxCount)

	sandboxLimits := limits[retention.ClassTempSandboxes]
	assert.Equal(t, 5*3600, int(sandboxLimits.MaxAge.Seconds()))
	assert.Equal(t, 3, sandboxLimits.MaxCount)

	assert.True(t, limits[retention.ClassReleaseEvidence].Protected)
}
