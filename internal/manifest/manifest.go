// Package manifest loads the TargetRepo manifest that tells the patrol
// driver which repos to run against.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// Manifest is the on-disk `{ repos: [...] }` document.
type Manifest struct {
	Repos []types.TargetRepo `json:"repos"`
}

// Load reads and parses a manifest file at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	for i, r := range m.Repos {
		if r.Name == "" {
			return nil, fmt.Errorf("manifest %s: repos[%d] missing name", path, i)
		}
		if r.LocalPath == "" && r.RemoteURL == "" {
			return nil, fmt.Errorf("manifest %s: repo %q has neither local_path nor remote", path, r.Name)
		}
	}

	return &m, nil
}

// Find returns the repo with the given name, or false if absent.
func (m *Manifest) Find(name string) (types.TargetRepo, bool) {
	for _, r := range m.Repos {
		if r.Name == name {
			return r, true
		}
	}
	return types.TargetRepo{}, false
}

// Select returns up to maxRepos repos from the manifest, using
// order to pick the subset and ordering (randomized for quick
// mode, deterministic language-diversity rotation for full/release).
func (m *Manifest) Select(maxRepos int, order []int) []types.TargetRepo {
	if maxRepos <= 0 || maxRepos > len(m.Repos) {
		maxRepos = len(m.Repos)
	}
	out := make([]types.TargetRepo, 0, maxRepos)
	for _, idx := range order {
		if len(out) >= maxRepos {
			break
		}
		if idx < 0 || idx >= len(m.Repos) {
			continue
		}
		out = append(out, m.Repos[idx])
	}
	return out
}
