package supervisor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

func TestProbeFamily(t *testing.T) {
	assert.Equal(t, FamilyClaude, ProbeFamily("/usr/local/bin/claude"))
	assert.Equal(t, FamilyCodex, ProbeFamily("/usr/local/bin/codex"))
	assert.Equal(t, FamilyClaude, ProbeFamily("/usr/local/bin/unknown-agent"))
}

func TestBuildInvocation_PromptDeliveryDiffersByFamily(t *testing.T) {
	claudeInv := BuildInvocation(FamilyClaude, "do the thing", false)
	assert.False(t, claudeInv.PromptOnStdin)
	assert.Contains(t, claudeInv.Args, "do the thing")

	codexInv := BuildInvocation(FamilyCodex, "do the thing", false)
	assert.True(t, codexInv.PromptOnStdin)
	assert.NotContains(t, codexInv.Args, "do the thing")
}

func TestRun_SpawnErrorYieldsSpawnFailureReason(t *testing.T) {
	result, err := Run(Options{
		AgentBin: "/nonexistent/binary/that/does/not/exist",
		Prompt:   "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, types.TerminationSpawnError, result.TerminationReason)
	assert.Equal(t, -1, result.ExitCode)
}

func TestRun_NormalExit(t *testing.T) {
	result, err := Run(Options{
		AgentBin: "/bin/echo",
		Prompt:   "hello world",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, types.TerminationNormal, result.TerminationReason)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRun_WallClockTimeout(t *testing.T) {
	result, err := Run(Options{
		AgentBin:      "/bin/sleep",
		Args:          []string{"5"},
		Timeout:       200 * time.Millisecond,
		CheckInterval: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, types.TerminationTimeout, result.TerminationReason)
	require.NotNil(t, result.RecoveryAudit)
	assert.Equal(t, types.TerminationTimeout, result.RecoveryAudit.Reason)
}

func TestBoundedBuffer_TruncatesPastCap(t *testing.T) {
	buf := newBoundedBuffer(4)
	_, _ = buf.Write([]byte("hello world"))
	assert.Contains(t, string(buf.Bytes()), truncationMarker)
	assert.Equal(t, 11, buf.TotalBytes())
}

func TestBoundedBuffer_NoTruncationUnderCap(t *testing.T) {
	buf := newBoundedBuffer(100)
	_, _ = buf.Write([]byte("hello"))
	assert.Equal(t, "hello", string(buf.Bytes()))
}
