// Package supervisor spawns agent subprocesses inside provisioned
// sandboxes and enforces wall-clock and stall termination triggers,
// funneling both into one idempotent terminator; a spawn error is
// reported directly, since there is no child to terminate.
package supervisor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/nateschmiedehaus/indexer-patrol/internal/procs"
	"github.com/nateschmiedehaus/indexer-patrol/internal/streamevents"
	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// Options configures one supervised agent invocation.
type Options struct {
	AgentBin       string
	Prompt         string
	WorkDir        string
	Timeout        time.Duration
	StallTimeout   time.Duration
	CheckInterval  time.Duration
	HeartbeatEvery time.Duration
	StreamCapBytes int
	EventStream    bool
	OnHeartbeat    func(Heartbeat)

	// Args, when non-nil, bypasses capability probing and is used
	// verbatim as the child's argv. For plain CLI invocations (bootstrap
	// runs, status checks) rather than agent-prompt delivery, where
	// ProbeFamily/BuildInvocation's claude/codex conventions don't apply.
	Args []string
}

// Heartbeat summarizes elapsed time and bytes captured so far.
type Heartbeat struct {
	Elapsed     time.Duration
	StdoutBytes int
	StderrBytes int
}

// Result is the Supervisor's outcome for one run.
type Result struct {
	ExitCode          int
	Stdout            string
	Stderr            string
	AssembledText     string
	ToolCalls         []streamevents.ToolCall
	TerminationReason types.TerminationReason
	RecoveryAudit     *types.RecoveryAudit
	StartedAt         time.Time
	Duration          time.Duration
}

const (
	defaultCheckInterval  = 1 * time.Second
	defaultHeartbeat      = 10 * time.Second
	defaultStreamCapBytes = 4 << 20 // 4 MiB
)

// Run spawns the agent binary per opts, supervises it, and returns a
// Result. Run never returns a Go error for agent-side failures (spawn
// errors, timeouts, stalls, non-zero exit) — those are all captured in
// the Result's TerminationReason/ExitCode/RecoveryAudit; a non-nil error
// return indicates a Supervisor-internal failure (e.g. stdout pipe could
// not be opened).
func Run(opts Options) (Result, error) {
	var invocation InvocationArgs
	if opts.Args != nil {
		invocation = InvocationArgs{Args: opts.Args, EventStream: opts.EventStream}
	} else {
		family := ProbeFamily(opts.AgentBin)
		invocation = BuildInvocation(family, opts.Prompt, opts.EventStream)
	}

	checkInterval := opts.CheckInterval
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}
	heartbeatEvery := opts.HeartbeatEvery
	if heartbeatEvery <= 0 {
		heartbeatEvery = defaultHeartbeat
	}
	streamCap := opts.StreamCapBytes
	if streamCap <= 0 {
		streamCap = defaultStreamCapBytes
	}

	cmd := exec.Command(opts.AgentBin, invocation.Args...)
	cmd.Dir = opts.WorkDir
	cmd.Env = os.Environ()
	setpgid(cmd)

	stdoutCap := newBoundedBuffer(streamCap)
	stderrCap := newBoundedBuffer(streamCap)

	var asm *streamevents.Assembler
	var stdoutPipeWriter *io.PipeWriter
	if invocation.EventStream {
		asm = streamevents.NewAssembler()
		pr, pw := io.Pipe()
		stdoutPipeWriter = pw
		cmd.Stdout = &teeWriter{capture: stdoutCap, down: pw}
		go func() {
			_ = streamevents.ParseStream(pr, asm)
		}()
	} else {
		cmd.Stdout = stdoutCap
	}
	cmd.Stderr = stderrCap

	if invocation.PromptOnStdin {
		cmd.Stdin = bytes.NewBufferString(opts.Prompt)
	}

	startedAt := time.Now()

	if err := cmd.Start(); err != nil {
		return Result{
			ExitCode:          -1,
			TerminationReason: types.TerminationSpawnError,
			StartedAt:         startedAt,
			Duration:          time.Since(startedAt),
		}, nil
	}

	term := newTerminator(cmd.Process.Pid)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var lastActivity atomic.Int64
	lastActivity.Store(startedAt.UnixNano())
	stopWatch := make(chan struct{})

	var firedReason types.TerminationReason

	if opts.Timeout > 0 {
		go runWallClockWatchdog(term, opts.Timeout, startedAt, stopWatch)
	}
	if opts.StallTimeout > 0 {
		go runStallSampler(term, cmd.Process.Pid, opts.StallTimeout, checkInterval, stdoutCap, stderrCap, &lastActivity, stopWatch)
	}
	go runHeartbeat(heartbeatEvery, startedAt, stdoutCap, stderrCap, opts.OnHeartbeat, stopWatch)

	waitErr := <-done
	close(stopWatch)

	if stdoutPipeWriter != nil {
		_ = stdoutPipeWriter.Close()
	}

	duration := time.Since(startedAt)
	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if asExitError(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	reason := term.Reason()
	if reason != types.TerminationNone {
		firedReason = reason
	} else {
		firedReason = types.TerminationNormal
	}

	var audit *types.RecoveryAudit
	if firedReason != types.TerminationNormal {
		pre := term.PreSnapshot()
		post, _ := procs.List()
		if pre == nil {
			pre = post
		}
		audit = buildRecoveryAudit(firedReason, cmd.Process.Pid, pre, post)
	}

	result := Result{
		ExitCode:          exitCode,
		Stdout:            string(stdoutCap.Bytes()),
		Stderr:            string(stderrCap.Bytes()),
		TerminationReason: firedReason,
		RecoveryAudit:     audit,
		StartedAt:         startedAt,
		Duration:          duration,
	}
	if asm != nil {
		result.AssembledText = asm.Text()
		result.ToolCalls = asm.ToolCalls()
	} else {
		result.AssembledText = result.Stdout
	}
	return result, nil
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

func runWallClockWatchdog(term *terminator, timeout time.Duration, startedAt time.Time, stop <-chan struct{}) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-stop:
		return
	case <-timer.C:
		term.Fire(types.TerminationTimeout)
	}
}

// runStallSampler cancels the run if elapsed time since the last byte
// on stdout/stderr exceeds stallTimeout, unless CPU activity in the
// process subtree counts as progress.
func runStallSampler(term *terminator, pid int, stallTimeout, checkInterval time.Duration, stdoutCap, stderrCap *boundedBuffer, lastActivity *atomic.Int64, stop <-chan struct{}) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	lastBytes := stdoutCap.TotalBytes() + stderrCap.TotalBytes()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			currentBytes := stdoutCap.TotalBytes() + stderrCap.TotalBytes()
			if currentBytes != lastBytes {
				lastBytes = currentBytes
				lastActivity.Store(time.Now().UnixNano())
				continue
			}

			if procList, err := procs.List(); err == nil {
				subtree := append([]int{pid}, procs.Descendants(pid, procList)...)
				if procs.TotalCPU(subtree, procList) > 0 {
					lastActivity.Store(time.Now().UnixNano())
					continue
				}
			}

			last := time.Unix(0, lastActivity.Load())
			if time.Since(last) > stallTimeout {
				term.Fire(types.TerminationStall)
				return
			}
		}
	}
}

func runHeartbeat(interval time.Duration, startedAt time.Time, stdoutCap, stderrCap *boundedBuffer, onHeartbeat func(Heartbeat), stop <-chan struct{}) {
	if onHeartbeat == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			onHeartbeat(Heartbeat{
				Elapsed:     time.Since(startedAt),
				StdoutBytes: stdoutCap.TotalBytes(),
				StderrBytes: stderrCap.TotalBytes(),
			})
		}
	}
}

// FormatSummary renders a one-line human summary of a Result, in the
// teacher's VerbosePrintf style.
func FormatSummary(r Result) string {
	return fmt.Sprintf("exit=%d reason=%s duration=%s", r.ExitCode, r.TerminationReason, r.Duration.Round(time.Millisecond))
}
