package aggregator

import "github.com/nateschmiedehaus/indexer-patrol/internal/types"

// constructionCoverage returns the union of every constructionsUsed[].constructionId
// observed across all reports' runs.
func constructionCoverage(reports []types.PatrolReport) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, report := range reports {
		for _, run := range report.Runs {
			if run.Observation == nil {
				continue
			}
			for _, cu := range run.Observation.ConstructionsUsed {
				if _, ok := seen[cu.ConstructionID]; ok {
					continue
				}
				seen[cu.ConstructionID] = struct{}{}
				out = append(out, cu.ConstructionID)
			}
		}
	}
	return out
}
