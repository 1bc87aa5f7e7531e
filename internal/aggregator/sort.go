package aggregator

import (
	"sort"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// sortFindingsBySeverity orders findings most severe first, then by
// occurrence count descending, for stable, deterministic report output.
func sortFindingsBySeverity(findings []types.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := findings[i].Severity.Rank(), findings[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return findings[i].OccurrenceCount > findings[j].OccurrenceCount
	})
}
