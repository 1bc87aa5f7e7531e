// Package policy implements the pure evidence-level decision function
// that gates release-blocking enforcement on what an invocation's runs
// actually observed.
package policy

import "github.com/nateschmiedehaus/indexer-patrol/internal/types"

// Evaluate derives the required and observed evidence levels for mode
// and runs, and the resulting enforcement.
//
// The gate is fail-closed only for wet and mixed required levels: a
// dry requirement is always allowed regardless of what was observed.
// This follows the component description's literal enforcement rule
// rather than the alternative reading flagged as an open question
// (that dry should additionally require observed != none).
func Evaluate(mode types.Mode, runs []types.AgentRun) types.PolicyVerdict {
	required := types.RequiredEvidenceForMode(mode)
	observed := observedLevel(runs)

	enforcement := types.EnforcementAllowed
	if isFailClosed(required) && !observed.Meets(required) {
		enforcement = types.EnforcementBlocked
	}

	return types.PolicyVerdict{
		Mode:        mode,
		Required:    required,
		Observed:    observed,
		Enforcement: enforcement,
	}
}

func isFailClosed(required types.EvidenceLevel) bool {
	return required == types.EvidenceWet || required == types.EvidenceMixed
}

// observedLevel implements: no successful run -> none; every successful
// run produced an observation -> wet; some but not all -> mixed;
// successful runs exist but none produced an observation -> none.
func observedLevel(runs []types.AgentRun) types.EvidenceLevel {
	var successful, withObservation int
	for _, r := range runs {
		if !r.Succeeded() {
			continue
		}
		successful++
		if r.Observation != nil {
			withObservation++
		}
	}

	switch {
	case successful == 0:
		return types.EvidenceNone
	case withObservation == successful:
		return types.EvidenceWet
	case withObservation == 0:
		return types.EvidenceNone
	default:
		return types.EvidenceMixed
	}
}
