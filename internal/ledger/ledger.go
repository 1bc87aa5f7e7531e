// Package ledger reads and writes the bounded, append-only evidence
// ledger used for drift detection across patrol runs.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

const fileKind = "patrol-ledger.v1"

// Load reads the ledger at path. A missing file yields an empty ledger.
// A file that fails to parse yields ErrLedgerCorrupt wrapped with the
// path and the parse error for diagnostics; callers should fall back to
// an empty ledger rather than aborting.
func Load(path string) (*types.Ledger, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &types.Ledger{Kind: fileKind}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	var l types.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrLedgerCorrupt, path, err)
	}
	if l.Kind == "" {
		l.Kind = fileKind
	}
	return &l, nil
}

// LoadOrEmpty is Load with LedgerCorrupt swallowed into a fresh empty
// ledger, matching spec §7's "start from an empty ledger" recovery rule.
func LoadOrEmpty(path string) *types.Ledger {
	l, err := Load(path)
	if err != nil {
		return &types.Ledger{Kind: fileKind}
	}
	return l
}

// Save atomically writes the ledger to path via temp-file-then-rename.
func Save(path string, l *types.Ledger) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-tmp-")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename ledger into place: %w", err)
	}

	success = true
	return nil
}

// EntryFromReport compresses a PatrolReport into the ledger entry
// recorded for drift windows.
func EntryFromReport(r types.PatrolReport) types.LedgerEntry {
	return types.LedgerEntry{
		CreatedAt:            r.CreatedAt,
		Mode:                 r.Mode,
		MeanNPS:              r.Aggregate.MeanNPS,
		WouldRecommendRate:   r.Aggregate.WouldRecommendRate,
		ImplicitFallbackRate: r.Aggregate.ImplicitFallbackRate,
		Enforcement:          r.Policy.Enforcement,
	}
}
