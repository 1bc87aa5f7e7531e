package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

func sampleReport() *types.PatrolReport {
	return &types.PatrolReport{
		Kind:      "patrol-report",
		Mode:      types.ModeQuick,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		CommitSha: "deadbeef",
	}
}

func TestFileStorage_Init_CreatesHistoryDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), ".patrol-tmp")
	fs := NewFileStorage(WithBaseDir(base))

	require.NoError(t, fs.Init())

	info, err := os.Stat(fs.GetHistoryDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileStorage_WriteArtifact_WritesReadableJSON(t *testing.T) {
	fs := NewFileStorage(WithBaseDir(t.TempDir()))
	path := filepath.Join(t.TempDir(), "artifact.json")

	written, err := fs.WriteArtifact(path, sampleReport())
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got types.PatrolReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "deadbeef", got.CommitSha)
}

func TestFileStorage_WriteArtifact_LeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(WithBaseDir(t.TempDir()))
	path := filepath.Join(dir, "artifact.json")

	_, err := fs.WriteArtifact(path, sampleReport())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "artifact.json", entries[0].Name())
}

func TestFileStorage_WriteArtifact_OverwritesExistingArtifact(t *testing.T) {
	fs := NewFileStorage(WithBaseDir(t.TempDir()))
	path := filepath.Join(t.TempDir(), "artifact.json")

	first := sampleReport()
	first.CommitSha = "first"
	_, err := fs.WriteArtifact(path, first)
	require.NoError(t, err)

	second := sampleReport()
	second.CommitSha = "second"
	_, err = fs.WriteArtifact(path, second)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got types.PatrolReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "second", got.CommitSha)
}

func TestFileStorage_AppendHistory_AppendsOneLinePerCall(t *testing.T) {
	base := t.TempDir()
	fs := NewFileStorage(WithBaseDir(base))
	require.NoError(t, fs.Init())

	require.NoError(t, fs.AppendHistory(sampleReport()))
	second := sampleReport()
	second.CommitSha = "second-commit"
	require.NoError(t, fs.AppendHistory(second))

	data, err := os.ReadFile(fs.GetHistoryPath())
	require.NoError(t, err)

	lines := splitLines(string(data))
	require.Len(t, lines, 2)

	var first types.PatrolReport
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "deadbeef", first.CommitSha)

	var last types.PatrolReport
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &last))
	assert.Equal(t, "second-commit", last.CommitSha)
}

func TestFileStorage_AppendHistory_CreatesDirWithoutInit(t *testing.T) {
	fs := NewFileStorage(WithBaseDir(filepath.Join(t.TempDir(), "nested", "base")))
	require.NoError(t, fs.AppendHistory(sampleReport()))

	_, err := os.Stat(fs.GetHistoryPath())
	assert.NoError(t, err)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
