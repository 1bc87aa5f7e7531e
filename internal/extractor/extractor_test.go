package extractor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTerminalBlock(t *testing.T) {
	text := TerminalStartSentinel + "\n" +
		`{"session_summary":"explored the repo","verdict":{"nps":8,"would_recommend":true}}` +
		"\n" + TerminalEndSentinel
	result := Extract(text)
	require.NotNil(t, result.Observation)
	assert.Equal(t, "explored the repo", result.Observation.SessionSummary)
	assert.Equal(t, 8, result.Observation.Verdict.NPS)
}

func TestExtractTerminalBlock_StripsCodeFence(t *testing.T) {
	text := TerminalStartSentinel + "\n```json\n" +
		`{"session_summary":"fenced"}` + "\n```\n" + TerminalEndSentinel
	result := Extract(text)
	require.NotNil(t, result.Observation)
	assert.Equal(t, "fenced", result.Observation.SessionSummary)
}

func TestExtractTerminalBlock_OnlyFirstBlockUsed(t *testing.T) {
	text := TerminalStartSentinel + "\n" + `{"session_summary":"first"}` + "\n" + TerminalEndSentinel +
		"\nnoise\n" +
		TerminalStartSentinel + "\n" + `{"session_summary":"second"}` + "\n" + TerminalEndSentinel
	result := Extract(text)
	require.NotNil(t, result.Observation)
	assert.Equal(t, "first", result.Observation.SessionSummary)
}

func marker(_, payload string) string {
	return fmt.Sprintf("%s: %s", IncrementalMarkerToken, payload)
}

func TestExtractIncremental_EnumerativeMarkersAppend(t *testing.T) {
	lines := []string{
		marker("feature", `{"type":"feature","feature_id":"search"}`),
		marker("feature", `{"type":"feature","feature_id":"embed"}`),
		marker("negative", `{"type":"negative","category":"bootstrap","title":"slow install","severity":"medium"}`),
	}
	result := Extract(strings.Join(lines, "\n"))
	require.NotNil(t, result.Observation)
	assert.Len(t, result.Observation.FeaturesUsed, 2)
	assert.Len(t, result.Observation.NegativeFindings, 1)
}

func TestExtractIncremental_SummaryMarkersOverwrite(t *testing.T) {
	lines := []string{
		marker("verdict", `{"type":"verdict","nps":5,"would_recommend":false}`),
		marker("verdict", `{"type":"verdict","nps":9,"would_recommend":true}`),
	}
	result := Extract(strings.Join(lines, "\n"))
	require.NotNil(t, result.Observation)
	assert.Equal(t, 9, result.Observation.Verdict.NPS)
	assert.True(t, result.Observation.Verdict.WouldRecommend)
}

func TestExtractIncremental_UnknownTypeIgnored(t *testing.T) {
	lines := []string{
		marker("feature", `{"type":"feature","feature_id":"search"}`),
		IncrementalMarkerToken + `: {"type":"not_a_real_type"}`,
	}
	result := Extract(strings.Join(lines, "\n"))
	require.NotNil(t, result.Observation)
	assert.Len(t, result.Observation.FeaturesUsed, 1)
}

func TestExtract_TerminalAndIncrementalRoundTripAgree(t *testing.T) {
	terminal := TerminalStartSentinel + "\n" +
		`{"verdict":{"nps":7,"would_recommend":true},"features_used":[{"feature_id":"search"}]}` +
		"\n" + TerminalEndSentinel
	incremental := strings.Join([]string{
		marker("verdict", `{"type":"verdict","nps":7,"would_recommend":true}`),
		marker("feature", `{"type":"feature","feature_id":"search"}`),
	}, "\n")

	terminalResult := Extract(terminal)
	incrementalResult := Extract(incremental)

	require.NotNil(t, terminalResult.Observation)
	require.NotNil(t, incrementalResult.Observation)
	assert.Equal(t, terminalResult.Observation.Verdict, incrementalResult.Observation.Verdict)
	assert.Equal(t, terminalResult.Observation.FeaturesUsed, incrementalResult.Observation.FeaturesUsed)
}

func TestExtract_NoSentinelOrMarkersYieldsNilObservation(t *testing.T) {
	result := Extract("just some plain agent chatter with no structure")
	assert.Nil(t, result.Observation)
}

func TestDetectImplicitSignals_GrepFallback(t *testing.T) {
	signals := detectImplicitSignals("running grep -r TODO .")
	assert.True(t, signals.GrepFallback)
}

func TestDetectImplicitSignals_FileReadFallback(t *testing.T) {
	signals := detectImplicitSignals("cat main.go to see the contents")
	assert.True(t, signals.FileReadFallback)
}

func TestDetectImplicitSignals_CommandFailureTally(t *testing.T) {
	signals := detectImplicitSignals("bash: foo: command not found\nbash: bar: command not found")
	assert.Equal(t, 2, signals.CommandFailures)
}

func TestDetectImplicitSignals_AbortedEarlyBoundary(t *testing.T) {
	short := strings.Repeat("x", abortedEarlyByteThreshold-1)
	signals := detectImplicitSignals(short)
	assert.True(t, signals.AbortedEarly)

	long := strings.Repeat("x", abortedEarlyByteThreshold)
	signals = detectImplicitSignals(long)
	assert.False(t, signals.AbortedEarly)
}

func TestDetectImplicitSignals_SentinelSuppressesAbortedEarly(t *testing.T) {
	text := TerminalStartSentinel
	signals := detectImplicitSignals(text)
	assert.False(t, signals.AbortedEarly)
}
