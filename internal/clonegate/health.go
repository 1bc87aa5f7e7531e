package clonegate

import (
	"fmt"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

const minSemanticCoveragePct = 80.0

// evaluateHealth runs the fixed battery of health assertions against a
// parsed status document.
func evaluateHealth(status types.StatusDocument) []types.HealthAssertion {
	return []types.HealthAssertion{
		{
			Name:   "storage_ready",
			Passed: status.StorageState == "ready",
			Detail: fmt.Sprintf("storage_state=%s", status.StorageState),
		},
		{
			Name:   "mvp_bootstrap_not_required",
			Passed: !status.MVPBootstrapRequired,
		},
		{
			Name:   "function_count_positive",
			Passed: status.FunctionCount > 0,
			Detail: fmt.Sprintf("function_count=%d", status.FunctionCount),
		},
		{
			Name:   "embedding_count_positive",
			Passed: status.EmbeddingCount > 0,
			Detail: fmt.Sprintf("embedding_count=%d", status.EmbeddingCount),
		},
		{
			Name:   "semantic_coverage_floor",
			Passed: status.SemanticCoveragePct >= minSemanticCoveragePct,
			Detail: fmt.Sprintf("semantic_coverage_pct=%.1f", status.SemanticCoveragePct),
		},
	}
}

// allPassed reports whether every assertion in assertions passed.
func allPassed(assertions []types.HealthAssertion) bool {
	for _, a := range assertions {
		if !a.Passed {
			return false
		}
	}
	return true
}
