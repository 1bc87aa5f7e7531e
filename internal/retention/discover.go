package retention

import (
	"os"
	"path/filepath"
	"strings"
)

// Context selects which root the retention driver walks to discover
// candidates.
type Context string

const (
	// ContextAuto walks both the workspace's .patrol-tmp tree and any
	// installed-package caches reachable from it.
	ContextAuto Context = "auto"
	// ContextRepo restricts discovery to externally-rooted clones under
	// the workspace (sandboxes and clone-gate checkouts).
	ContextRepo Context = "repo"
	// ContextInstalled restricts discovery to installed Indexer
	// tarballs/binaries under the workspace.
	ContextInstalled Context = "installed"
)

// releaseEvidenceDir and the other directory names below are the fixed
// layout every sandbox/provisioner/clone-gate writes under a workspace's
// base directory.
const (
	releaseEvidenceDir   = "release-evidence"
	patrolReportsDir     = "reports"
	sandboxPrefix        = "sandbox-"
	cloneGatePrefix      = "clonegate-"
	installablePackageExt = ".tar.gz"
)

// Discover walks workspace's base directory (BaseDir, typically
// .patrol-tmp) and classifies every top-level entry per ctx. Entries
// that do not match a known class are skipped rather than guessed at,
// since an unrecognized artifact should never be silently deleted.
func Discover(baseDir string, ctx Context) ([]Candidate, error) {
	entries, err := os.ReadDir(baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Candidate
	for _, entry := range entries {
		path := filepath.Join(baseDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}

		class, ok := classify(entry.Name())
		if !ok {
			continue
		}
		if !contextIncludes(ctx, class) {
			continue
		}

		out = append(out, Candidate{Path: path, ModTime: info.ModTime(), Class: class})
	}
	return out, nil
}

func classify(name string) (Class, bool) {
	switch {
	case name == releaseEvidenceDir:
		return ClassReleaseEvidence, true
	case name == patrolReportsDir:
		return ClassPatrolReports, true
	case strings.HasPrefix(name, sandboxPrefix):
		return ClassTempSandboxes, true
	case strings.HasSuffix(name, installablePackageExt):
		return ClassTransientPackages, true
	case strings.HasPrefix(name, cloneGatePrefix):
		return ClassExternalClones, true
	default:
		return "", false
	}
}

func contextIncludes(ctx Context, class Class) bool {
	switch ctx {
	case ContextRepo:
		return class == ClassTempSandboxes || class == ClassExternalClones
	case ContextInstalled:
		return class == ClassTransientPackages
	default: // ContextAuto and unrecognized values fall back to everything
		return true
	}
}
