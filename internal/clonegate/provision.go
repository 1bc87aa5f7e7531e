package clonegate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nateschmiedehaus/indexer-patrol/internal/sandbox"
	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// freshSandbox shallow-clones the source workspace into a new directory
// under baseDir and installs the Indexer from tarballPath, independent
// of the agent-run Sandbox Provisioner.
func freshSandbox(sourceWorkspace, tarballPath, baseDir string, cloneTimeout time.Duration) (types.Sandbox, error) {
	id := uuid.NewString()[:12]
	tmpRoot := filepath.Join(baseDir, "clonegate-"+id)
	workspace := filepath.Join(tmpRoot, "workspace")
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return types.Sandbox{}, fmt.Errorf("%w: create clonegate workspace: %v", types.ErrStorageSetupFailure, err)
	}

	if cloneTimeout <= 0 {
		cloneTimeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), cloneTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", sourceWorkspace, workspace)
	if out, err := cmd.CombinedOutput(); err != nil {
		return types.Sandbox{}, fmt.Errorf("%w: shallow clone of %s: %v (%s)", types.ErrRepoUnavailable, sourceWorkspace, err, string(out))
	}

	indexerPath, err := sandbox.InstallIndexer(tarballPath, tmpRoot)
	if err != nil {
		return types.Sandbox{}, fmt.Errorf("%w: install indexer: %v", types.ErrStorageSetupFailure, err)
	}

	return types.Sandbox{
		TmpRoot:              tmpRoot,
		Workspace:            workspace,
		InstalledIndexerPath: indexerPath,
		CreatedAt:            time.Now(),
	}, nil
}
