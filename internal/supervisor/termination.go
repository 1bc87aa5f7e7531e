package supervisor

import (
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/nateschmiedehaus/indexer-patrol/internal/procs"
	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// gracePeriod is the interval between the polite (SIGTERM) and forceful
// (SIGKILL) signal sent to a terminated process group.
const gracePeriod = 5 * time.Second

// setpgid configures cmd to become the leader of a new process group so
// that termination can be scoped to its group rather than to
// individually-discovered pids.
func setpgid(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminator funnels the Supervisor's two independent termination
// triggers (wall-clock timeout, output stall) into one idempotent
// action. The first trigger wins; later triggers are
// audit-only per the design note on re-entrancy.
type terminator struct {
	once        sync.Once
	pid         int
	reason      types.TerminationReason
	preSnapshot []procs.Info
}

func newTerminator(pid int) *terminator {
	return &terminator{pid: pid}
}

// Fire sends a polite signal to the process group rooted at t.pid,
// followed by a forceful signal after gracePeriod unless the group has
// already exited. Only the first call takes effect; the returned bool
// reports whether this call was the one that fired. The process
// subtree is snapshotted before any signal is sent, matching the
// termination contract's pre-termination diagnostic requirement.
func (t *terminator) Fire(reason types.TerminationReason) bool {
	fired := false
	t.once.Do(func() {
		fired = true
		t.reason = reason
		t.preSnapshot, _ = procs.List()
		t.signalGroup(syscall.SIGTERM)
		go func() {
			time.Sleep(gracePeriod)
			t.signalGroup(syscall.SIGKILL)
		}()
	})
	return fired
}

// PreSnapshot returns the process-table snapshot taken at Fire time, or
// nil if Fire was never called.
func (t *terminator) PreSnapshot() []procs.Info {
	return t.preSnapshot
}

// signalGroup signals the process group rooted at t.pid. ESRCH (already
// exited) is not an error condition.
func (t *terminator) signalGroup(sig syscall.Signal) {
	_ = syscall.Kill(-t.pid, sig)
}

// Reason returns the winning termination reason, or TerminationNone if
// Fire was never called.
func (t *terminator) Reason() types.TerminationReason {
	if t.reason == "" {
		return types.TerminationNone
	}
	return t.reason
}

// buildRecoveryAudit assembles the RecoveryAudit from pre/post snapshots
// of the process subtree rooted at pid.
func buildRecoveryAudit(reason types.TerminationReason, pid int, pre, post []procs.Info) *types.RecoveryAudit {
	descendants := append([]int{pid}, procs.Descendants(pid, pre)...)

	stillAlive := procs.StillAlive(descendants, post)

	return &types.RecoveryAudit{
		Reason:               reason,
		TargetDescendantPIDs: descendants,
		TargetStillAlivePIDs: stillAlive,
		PreSnapshot:          toProcSnapshots(procs.Snapshot(pid, pre)),
		PostSnapshot:         toProcSnapshots(procs.Snapshot(pid, post)),
		LeakedDescendants:    len(stillAlive) > 0,
	}
}

func toProcSnapshots(in []procs.Info) []types.ProcSnapshot {
	out := make([]types.ProcSnapshot, 0, len(in))
	for _, p := range in {
		out = append(out, types.ProcSnapshot{
			PID:     p.PID,
			PPID:    p.PPID,
			User:    p.User,
			Elapsed: p.Elapsed,
			CPU:     p.CPU,
			Command: p.Command,
		})
	}
	return out
}
