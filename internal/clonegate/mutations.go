package clonegate

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

const gitMutationTimeout = 10 * time.Second

// runGit runs a git subcommand inside dir with a short timeout,
// returning combined output on failure for diagnostics.
func runGit(dir string, args ...string) error {
	_, err := runGitOutput(dir, args...)
	return err
}

// runGitOutput is runGit but also returns trimmed stdout+stderr on success.
func runGitOutput(dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitMutationTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %v: %w (%s)", args, err, string(out))
	}
	return strings.TrimSpace(string(out)), nil
}

// branchSwitchMutation checks out a new branch with no content change:
// the indexed commit remains HEAD, so the expected relation is
// indexed-ancestor (trivially, HEAD is its own ancestor).
func branchSwitchMutation(sb types.Sandbox, opts Options) error {
	return runGit(sb.Workspace, "checkout", "-b", "patrol-branch-switch")
}

// historyRewriteMutation commits a new child of the indexed commit,
// indexes it with update so the index now points past the bootstrapped
// commit, then hard-resets HEAD back to the originally indexed commit.
// The index is left ahead of HEAD, so the expected relation is
// head-ancestor (HEAD is an ancestor of what's indexed, not the reverse).
func historyRewriteMutation(sb types.Sandbox, opts Options) error {
	indexedCommit, err := runGitOutput(sb.Workspace, "rev-parse", "HEAD")
	if err != nil {
		return err
	}
	if err := runGit(sb.Workspace, "commit", "--allow-empty", "-m", "patrol-history-rewrite"); err != nil {
		return err
	}
	if _, err := runIndexerCommand(sb.InstalledIndexerPath, sb.Workspace, []string{"update"}, opts); err != nil {
		return err
	}
	return runGit(sb.Workspace, "reset", "--hard", indexedCommit)
}

// divergentRebaseMutation checks out an orphan commit sharing no
// ancestry with the indexed commit, simulating the end state of a
// divergent rebase: expected relation is diverged.
func divergentRebaseMutation(sb types.Sandbox, opts Options) error {
	if err := runGit(sb.Workspace, "checkout", "--orphan", "patrol-divergent"); err != nil {
		return err
	}
	if err := runGit(sb.Workspace, "reset", "--hard"); err != nil {
		return err
	}
	return runGit(sb.Workspace, "commit", "--allow-empty", "-m", "patrol-divergent-rebase")
}
