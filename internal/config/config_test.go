package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, defaultBaseDir, cfg.BaseDir)
	assert.Equal(t, defaultCapTotalBytes, cfg.Storage.CapTotalBytes)
	assert.Equal(t, defaultCapAgeHours, cfg.Storage.CapAgeHours)
	assert.Equal(t, defaultCapEntries, cfg.Storage.CapEntries)
	assert.False(t, cfg.Verbose)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	withCleanEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultBaseDir, cfg.BaseDir)
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	withCleanEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	writeYAML(t, filepath.Join(dir, ".patrol", "config.yaml"), `
base_dir: custom-tmp
storage:
  cap_entries: 5
`)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "custom-tmp", cfg.BaseDir)
	assert.Equal(t, 5, cfg.Storage.CapEntries)
}

func TestLoad_EnvOverridesProject(t *testing.T) {
	withCleanEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	writeYAML(t, filepath.Join(dir, ".patrol", "config.yaml"), `
base_dir: project-tmp
`)
	t.Setenv("PATROL_BASE_DIR", "env-tmp")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "env-tmp", cfg.BaseDir)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	withCleanEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	writeYAML(t, filepath.Join(dir, ".patrol", "config.yaml"), `
base_dir: project-tmp
`)
	t.Setenv("PATROL_BASE_DIR", "env-tmp")

	cfg, err := Load(&Config{BaseDir: "flag-tmp"})
	require.NoError(t, err)
	assert.Equal(t, "flag-tmp", cfg.BaseDir)
}

func TestApplyEnv_SkipHealthAssertAndAgentBin(t *testing.T) {
	withCleanEnv(t)
	t.Setenv("PATROL_SKIP_HEALTH_ASSERT", "1")
	t.Setenv("PATROL_AGENT_BIN", "/usr/local/bin/custom-agent")
	t.Setenv("PATROL_EMBEDDING_PROVIDER", "openai")
	t.Setenv("PATROL_EMBEDDING_MODEL", "text-embedding-3-small")

	cfg := applyEnv(Default())
	assert.True(t, cfg.Agent.SkipHealthAssert)
	assert.Equal(t, "/usr/local/bin/custom-agent", cfg.Agent.Bin)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
}

func TestResolve_TracksSourcePrecedence(t *testing.T) {
	withCleanEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	writeYAML(t, filepath.Join(dir, ".patrol", "config.yaml"), `
embedding:
  provider: project-provider
`)
	t.Setenv("PATROL_EMBEDDING_MODEL", "env-model")

	rc := Resolve("", "", "", "", false)
	assert.Equal(t, "project-provider", rc.EmbeddingProvider.Value)
	assert.Equal(t, SourceProject, rc.EmbeddingProvider.Source)
	assert.Equal(t, "env-model", rc.EmbeddingModel.Value)
	assert.Equal(t, SourceEnv, rc.EmbeddingModel.Source)

	rc = Resolve("", "flag-provider", "", "", false)
	assert.Equal(t, "flag-provider", rc.EmbeddingProvider.Value)
	assert.Equal(t, SourceFlag, rc.EmbeddingProvider.Source)
}

func withCleanEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PATROL_CONFIG", "PATROL_BASE_DIR", "PATROL_VERBOSE",
		"PATROL_STORAGE_CAP_TOTAL", "PATROL_STORAGE_CAP_AGE_HOURS", "PATROL_STORAGE_CAP_ENTRIES",
		"PATROL_EMBEDDING_PROVIDER", "PATROL_EMBEDDING_MODEL",
		"PATROL_SKIP_HEALTH_ASSERT", "PATROL_AGENT_BIN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeYAML(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
