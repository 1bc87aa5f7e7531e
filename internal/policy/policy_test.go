package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

func run(succeeded bool, hasObservation bool) types.AgentRun {
	r := types.AgentRun{ExitCode: 0, TerminationReason: types.TerminationNormal}
	if !succeeded {
		r.TerminationReason = types.TerminationTimeout
	}
	if hasObservation {
		r.Observation = &types.Observation{}
	}
	return r
}

func TestEvaluate_NoRunsIsNoneObserved(t *testing.T) {
	v := Evaluate(types.ModeRelease, nil)
	assert.Equal(t, types.EvidenceNone, v.Observed)
	assert.Equal(t, types.EvidenceWet, v.Required)
	assert.Equal(t, types.EnforcementBlocked, v.Enforcement)
}

func TestEvaluate_AllSuccessfulWithObservationIsWet(t *testing.T) {
	runs := []types.AgentRun{run(true, true), run(true, true)}
	v := Evaluate(types.ModeRelease, runs)
	assert.Equal(t, types.EvidenceWet, v.Observed)
	assert.Equal(t, types.EnforcementAllowed, v.Enforcement)
}

func TestEvaluate_SomeButNotAllObservationIsMixed(t *testing.T) {
	runs := []types.AgentRun{run(true, true), run(true, false)}
	v := Evaluate(types.ModeFull, runs)
	assert.Equal(t, types.EvidenceMixed, v.Observed)
	assert.Equal(t, types.EvidenceMixed, v.Required)
	assert.Equal(t, types.EnforcementAllowed, v.Enforcement)
}

func TestEvaluate_SuccessfulRunsButNoneObservedIsNone(t *testing.T) {
	runs := []types.AgentRun{run(true, false), run(true, false)}
	v := Evaluate(types.ModeRelease, runs)
	assert.Equal(t, types.EvidenceNone, v.Observed)
	assert.Equal(t, types.EnforcementBlocked, v.Enforcement)
}

func TestEvaluate_QuickModeIsDryAndAlwaysAllowed(t *testing.T) {
	v := Evaluate(types.ModeQuick, nil)
	assert.Equal(t, types.EvidenceDry, v.Required)
	assert.Equal(t, types.EnforcementAllowed, v.Enforcement)
}

func TestEvaluate_MixedRequiredBlockedWhenObservedNone(t *testing.T) {
	runs := []types.AgentRun{run(false, false)}
	v := Evaluate(types.ModeFull, runs)
	assert.Equal(t, types.EvidenceNone, v.Observed)
	assert.Equal(t, types.EnforcementBlocked, v.Enforcement)
}

func TestEvaluate_MixedObservedSatisfiesMixedRequired(t *testing.T) {
	runs := []types.AgentRun{run(true, true), run(true, false)}
	v := Evaluate(types.ModeFull, runs)
	assert.Equal(t, types.EnforcementAllowed, v.Enforcement)
}

func TestEvaluate_MixedObservedDoesNotSatisfyWetRequired(t *testing.T) {
	runs := []types.AgentRun{run(true, true), run(true, false)}
	v := Evaluate(types.ModeRelease, runs)
	assert.Equal(t, types.EvidenceMixed, v.Observed)
	assert.Equal(t, types.EnforcementBlocked, v.Enforcement)
}

func TestEvidenceLevel_MeetsOrdering(t *testing.T) {
	assert.True(t, types.EvidenceWet.Meets(types.EvidenceMixed))
	assert.True(t, types.EvidenceWet.Meets(types.EvidenceDry))
	assert.False(t, types.EvidenceDry.Meets(types.EvidenceMixed))
	assert.True(t, types.EvidenceNone.Meets(types.EvidenceNone))
}
