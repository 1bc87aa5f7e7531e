package procs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sample() []Info {
	return []Info{
		{PID: 1, PPID: 0, User: "root", Command: "init"},
		{PID: 10, PPID: 1, User: "alice", Command: "supervisor"},
		{PID: 11, PPID: 10, User: "alice", CPU: 2.5, Command: "agent"},
		{PID: 12, PPID: 11, User: "alice", CPU: 0, Command: "grep -r foo ."},
		{PID: 99, PPID: 1, User: "bob", Command: "unrelated"},
	}
}

func TestDescendants(t *testing.T) {
	procs := sample()
	got := Descendants(10, procs)
	assert.ElementsMatch(t, []int{11, 12}, got)
}

func TestDescendants_ExcludesUnrelated(t *testing.T) {
	procs := sample()
	got := Descendants(10, procs)
	assert.NotContains(t, got, 99)
}

func TestExists(t *testing.T) {
	procs := sample()
	assert.True(t, Exists(11, procs))
	assert.False(t, Exists(404, procs))
}

func TestTotalCPU(t *testing.T) {
	procs := sample()
	total := TotalCPU([]int{10, 11, 12}, procs)
	assert.Equal(t, 2.5, total)
}

func TestStillAlive(t *testing.T) {
	procs := sample()
	got := StillAlive([]int{10, 11, 12, 9999}, procs)
	assert.ElementsMatch(t, []int{10, 11, 12}, got)
}

func TestSnapshot(t *testing.T) {
	procs := sample()
	snap := Snapshot(10, procs)
	var pids []int
	for _, p := range snap {
		pids = append(pids, p.PID)
	}
	assert.ElementsMatch(t, []int{10, 11, 12}, pids)
}

func TestParsePS(t *testing.T) {
	out := []byte(" 123  1 alice  3600  1.5 /usr/bin/claude -p hello\n456 123 alice 10 0.0 grep -r foo bar\n")
	procs, err := parsePS(out)
	assert.NoError(t, err)
	assert.Len(t, procs, 2)
	assert.Equal(t, 123, procs[0].PID)
	assert.Equal(t, 1, procs[0].PPID)
	assert.Equal(t, "alice", procs[0].User)
	assert.Equal(t, 3600, procs[0].Elapsed)
	assert.Equal(t, 1.5, procs[0].CPU)
	assert.Equal(t, "/usr/bin/claude -p hello", procs[0].Command)
}
