package retention

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if filepath.Ext(path) == "" {
		require.NoError(t, os.MkdirAll(path, 0o755))
		return
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestDiscover_MissingBaseDirYieldsNoCandidates(t *testing.T) {
	out, err := Discover(filepath.Join(t.TempDir(), "missing"), ContextAuto)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDiscover_ClassifiesKnownEntries(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "release-evidence"))
	touch(t, filepath.Join(base, "reports"))
	touch(t, filepath.Join(base, "sandbox-abc123"))
	touch(t, filepath.Join(base, "clonegate-def456"))
	touch(t, filepath.Join(base, "indexer-1.0.0.tar.gz"))
	touch(t, filepath.Join(base, "unrecognized-entry"))

	out, err := Discover(base, ContextAuto)
	require.NoError(t, err)

	byClass := map[Class]int{}
	for _, c := range out {
		byClass[c.Class]++
	}
	assert.Equal(t, 1, byClass[ClassReleaseEvidence])
	assert.Equal(t, 1, byClass[ClassPatrolReports])
	assert.Equal(t, 1, byClass[ClassTempSandboxes])
	assert.Equal(t, 1, byClass[ClassExternalClones])
	assert.Equal(t, 1, byClass[ClassTransientPackages])
	assert.Len(t, out, 5, "unrecognized entries must never be classified")
}

func TestDiscover_ContextRepoRestrictsToClonesAndSandboxes(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "sandbox-abc123"))
	touch(t, filepath.Join(base, "clonegate-def456"))
	touch(t, filepath.Join(base, "indexer-1.0.0.tar.gz"))

	out, err := Discover(base, ContextRepo)
	require.NoError(t, err)

	assert.Len(t, out, 2)
	for _, c := range out {
		assert.NotEqual(t, ClassTransientPackages, c.Class)
	}
}

func TestDiscover_ContextInstalledRestrictsToPackages(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "sandbox-abc123"))
	touch(t, filepath.Join(base, "indexer-1.0.0.tar.gz"))

	out, err := Discover(base, ContextInstalled)
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, ClassTransientPackages, out[0].Class)
}
