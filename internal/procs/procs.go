// Package procs provides process-table introspection used by the Agent
// Supervisor for descendant-pid discovery, CPU-activity sampling, and
// termination diagnostic snapshots.
package procs

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// Info is one row of the system process table, scoped to the fields the
// Supervisor's diagnostic snapshots need: pid, parent pid, user, elapsed
// time in seconds, CPU percent, and command line.
type Info struct {
	PID     int
	PPID    int
	User    string
	Elapsed int // seconds
	CPU     float64
	Command string
}

// List shells out to `ps` for a full process-table snapshot.
func List() ([]Info, error) {
	cmd := exec.Command("ps", "-axo", "pid=,ppid=,user=,etimes=,pcpu=,command=")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return parsePS(out)
}

func parsePS(out []byte) ([]Info, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var procs []Info
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		user := fields[2]
		elapsed, _ := strconv.Atoi(fields[3])
		cpu, _ := strconv.ParseFloat(fields[4], 64)
		procs = append(procs, Info{
			PID:     pid,
			PPID:    ppid,
			User:    user,
			Elapsed: elapsed,
			CPU:     cpu,
			Command: strings.Join(fields[5:], " "),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse process list: %w", err)
	}
	return procs, nil
}

// Exists reports whether pid is present in procs.
func Exists(pid int, procs []Info) bool {
	for _, p := range procs {
		if p.PID == pid {
			return true
		}
	}
	return false
}

// Descendants returns every pid transitively parented by rootPID,
// excluding rootPID itself.
func Descendants(rootPID int, procs []Info) []int {
	children := make(map[int][]int)
	for _, p := range procs {
		children[p.PPID] = append(children[p.PPID], p.PID)
	}

	var out []int
	queue := []int{rootPID}
	seen := map[int]struct{}{rootPID: {}}

	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		for _, child := range children[pid] {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	sort.Ints(out)
	return out
}

// TotalCPU sums the CPU percent of every process in pids, used by the
// Supervisor's stall sampler to treat subtree CPU activity as progress.
func TotalCPU(pids []int, procs []Info) float64 {
	byPID := make(map[int]Info, len(procs))
	for _, p := range procs {
		byPID[p.PID] = p
	}
	var total float64
	for _, pid := range pids {
		if p, ok := byPID[pid]; ok {
			total += p.CPU
		}
	}
	return total
}

// Snapshot captures a diagnostic snapshot of rootPID and its full
// descendant subtree, in the shape recorded by termination audits.
func Snapshot(rootPID int, procs []Info) []Info {
	ids := append([]int{rootPID}, Descendants(rootPID, procs)...)
	byPID := make(map[int]Info, len(procs))
	for _, p := range procs {
		byPID[p.PID] = p
	}
	out := make([]Info, 0, len(ids))
	for _, id := range ids {
		if p, ok := byPID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// StillAlive returns the subset of targetPIDs found in a fresh process
// listing, used for the post-termination audit snapshot.
func StillAlive(targetPIDs []int, procs []Info) []int {
	var alive []int
	for _, pid := range targetPIDs {
		if Exists(pid, procs) {
			alive = append(alive, pid)
		}
	}
	sort.Ints(alive)
	return alive
}
