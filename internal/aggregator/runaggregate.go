package aggregator

import "github.com/nateschmiedehaus/indexer-patrol/internal/types"

// ComputeRunAggregate summarizes one invocation's own runs into the
// RunAggregate embedded in its PatrolReport, ahead of any cross-report
// aggregation.
func ComputeRunAggregate(runs []types.AgentRun) types.RunAggregate {
	if len(runs) == 0 {
		return types.RunAggregate{}
	}

	var withObservation int
	var sumNPS float64
	var recommendCount, fallbackCount int
	var attempted, succeeded int
	seenConstructions := map[string]struct{}{}

	for _, r := range runs {
		if r.ImplicitSignals.GrepFallback || r.ImplicitSignals.FileReadFallback || r.ImplicitSignals.AbortedEarly {
			fallbackCount++
		}
		if r.Observation == nil {
			continue
		}
		withObservation++
		sumNPS += float64(r.Observation.Verdict.NPS)
		if r.Observation.Verdict.WouldRecommend {
			recommendCount++
		}
		for _, c := range r.Observation.ConstructionsUsed {
			seenConstructions[c.ConstructionID] = struct{}{}
		}
		for _, ca := range r.Observation.CompositionsAttempted {
			attempted++
			if ca.Succeeded {
				succeeded++
			}
		}
	}

	n := float64(len(runs))
	agg := types.RunAggregate{
		ImplicitFallbackRate: float64(fallbackCount) / n,
		ConstructionCoverage: len(seenConstructions),
	}
	if withObservation > 0 {
		agg.MeanNPS = sumNPS / float64(withObservation)
		agg.WouldRecommendRate = float64(recommendCount) / float64(withObservation)
	}
	if attempted > 0 {
		agg.CompositionSuccessRate = float64(succeeded) / float64(attempted)
	}
	return agg
}
