// Package sandbox materializes ephemeral, isolated workspace copies of
// target repos with the Indexer pre-installed, for a single supervised
// agent run.
package sandbox

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nateschmiedehaus/indexer-patrol/internal/supervisor"
	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// minFreeBytes is the free-space floor below which provisioning refuses
// to allocate a new sandbox, matching the StorageSetupFailure contract.
const minFreeBytes = 256 << 20 // 256 MiB

// Options configures one Provision call.
type Options struct {
	BaseDir               string
	TarballPath           string
	CheapModelEnv         map[string]string
	Interactive           bool
	BootstrapTimeout      time.Duration
	BootstrapStallTimeout time.Duration
	Verbosef              func(string, ...any)
	CloneTimeout          time.Duration
}

// Provision materializes a Sandbox for repo. It is non-fatal on
// bootstrap failure: the bootstrap's *supervisor.Result is returned
// alongside the Sandbox rather than surfaced as an error, since the
// agent will encounter the same broken state the bootstrap did. It is
// the caller's responsibility to inspect and record that result.
func Provision(repo types.TargetRepo, opts Options) (types.Sandbox, *supervisor.Result, error) {
	verbosef := opts.Verbosef
	if verbosef == nil {
		verbosef = func(string, ...any) {}
	}

	if err := checkFreeSpace(opts.BaseDir); err != nil {
		return types.Sandbox{}, nil, fmt.Errorf("%w: %v", types.ErrStorageSetupFailure, err)
	}

	id := generateID()
	tmpRoot := filepath.Join(opts.BaseDir, "sandbox-"+id)
	workspace := filepath.Join(tmpRoot, "workspace")
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return types.Sandbox{}, nil, fmt.Errorf("%w: create workspace: %v", types.ErrStorageSetupFailure, err)
	}

	if err := materializeRepo(repo, workspace, opts.CloneTimeout, verbosef); err != nil {
		return types.Sandbox{}, nil, err
	}

	synthesizeManifestIfMissing(workspace, repo, verbosef)

	installedIndexerPath, err := InstallIndexer(opts.TarballPath, tmpRoot)
	if err != nil {
		return types.Sandbox{}, nil, fmt.Errorf("%w: install indexer: %v", types.ErrStorageSetupFailure, err)
	}

	sb := types.Sandbox{
		TmpRoot:              tmpRoot,
		Workspace:            workspace,
		InstalledIndexerPath: installedIndexerPath,
		Protected:            false,
		CreatedAt:            time.Now(),
	}

	bootstrapResult := runBootstrap(sb, opts)
	return sb, bootstrapResult, nil
}

// materializeRepo copies a local clone if available, else shallow-clones
// the remote URL and attempts the pinned commit (ignoring checkout
// failure if the shallow clone lacks that commit).
func materializeRepo(repo types.TargetRepo, workspace string, cloneTimeout time.Duration, verbosef func(string, ...any)) error {
	if repo.LocalPath != "" {
		if _, err := os.Stat(repo.LocalPath); err == nil {
			return copyTree(repo.LocalPath, workspace)
		}
	}

	if repo.RemoteURL == "" {
		return types.ErrRepoUnavailable
	}

	if cloneTimeout <= 0 {
		cloneTimeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), cloneTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", repo.RemoteURL, workspace)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: clone %s: %v (%s)", types.ErrRepoUnavailable, repo.RemoteURL, err, string(out))
	}

	if repo.Commit != "" {
		checkoutCtx, checkoutCancel := context.WithTimeout(context.Background(), cloneTimeout)
		defer checkoutCancel()
		checkout := exec.CommandContext(checkoutCtx, "git", "checkout", repo.Commit)
		checkout.Dir = workspace
		if out, err := checkout.CombinedOutput(); err != nil {
			verbosef("pinned commit %s not present in shallow clone of %s, continuing at HEAD: %s\n", repo.Commit, repo.Name, string(out))
		}
	}
	return nil
}

// synthesizeManifestIfMissing writes a minimal package.json when the
// target repo lacks one, mirroring the teacher's best-effort auxiliary
// setup pattern: log a warning, never fail the provision.
func synthesizeManifestIfMissing(workspace string, repo types.TargetRepo, verbosef func(string, ...any)) {
	manifestPath := filepath.Join(workspace, "package.json")
	if _, err := os.Stat(manifestPath); err == nil {
		return
	}

	doc := map[string]string{"name": repo.Name, "version": "0.0.0"}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		verbosef("warning: could not marshal synthesized manifest for %s: %v\n", repo.Name, err)
		return
	}
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		verbosef("warning: could not write synthesized manifest for %s: %v\n", repo.Name, err)
	}
}

// InstallIndexer extracts the packaged Indexer tarball into tmpRoot and
// returns the path to the installed binary. Exported for reuse by the
// Clean-Clone Gate, which provisions its own sandbox independently of
// an agent run.
func InstallIndexer(tarballPath, tmpRoot string) (string, error) {
	installDir := filepath.Join(tmpRoot, "indexer")
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return "", err
	}

	f, err := os.Open(tarballPath)
	if err != nil {
		return "", fmt.Errorf("open tarball: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read tarball entry: %w", err)
		}
		target := filepath.Join(installDir, hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return "", err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return "", err
			}
			out.Close()
		}
	}

	return filepath.Join(installDir, "bin", "indexer"), nil
}

// runBootstrap runs the Indexer's bootstrap in fast mode,
// non-interactive, assume-yes, with progress streamed live via the same
// heartbeat mechanism used for agent runs rather than buffered silently
// until completion. Failure is non-fatal: the agent will encounter the
// same broken state the bootstrap did.
func runBootstrap(sb types.Sandbox, opts Options) *supervisor.Result {
	verbosef := opts.Verbosef
	if verbosef == nil {
		verbosef = func(string, ...any) {}
	}

	result, err := supervisor.Run(supervisor.Options{
		AgentBin:     sb.InstalledIndexerPath,
		Args:         []string{"bootstrap", "--mode", "fast", "--yes", "--non-interactive"},
		WorkDir:      sb.Workspace,
		Timeout:      opts.BootstrapTimeout,
		StallTimeout: opts.BootstrapStallTimeout,
		OnHeartbeat: func(hb supervisor.Heartbeat) {
			verbosef("bootstrap heartbeat: elapsed=%s stdout=%dB stderr=%dB\n", hb.Elapsed, hb.StdoutBytes, hb.StderrBytes)
		},
	})
	if err != nil {
		return &supervisor.Result{TerminationReason: types.TerminationSpawnError}
	}
	return &result
}

// checkFreeSpace returns an error if the filesystem backing dir has
// less than minFreeBytes available.
func checkFreeSpace(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return err
	}
	available := stat.Bavail * uint64(stat.Bsize)
	if available < minFreeBytes {
		return fmt.Errorf("only %d bytes available on volume backing %s", available, dir)
	}
	return nil
}
