package extractor

import "github.com/nateschmiedehaus/indexer-patrol/internal/types"

// Result is the combined output of extraction: the structured
// Observation (nil if neither parsing mode found anything) plus the
// implicit signals detected from the raw text, which are computed
// regardless of whether extraction succeeded.
type Result struct {
	Observation     *types.Observation
	ImplicitSignals types.ImplicitSignals
}

// Extract tries the terminal-block parsing mode first, falling back to
// incremental-marker assembly, and never fails fatally: an absent
// observation yields a nil Observation, to be treated as missing
// evidence by the Aggregator.
func Extract(text string) Result {
	signals := detectImplicitSignals(text)

	if obs, ok := extractTerminalBlock(text); ok {
		return Result{Observation: obs, ImplicitSignals: signals}
	}
	if obs, ok := extractIncremental(text); ok {
		return Result{Observation: obs, ImplicitSignals: signals}
	}
	return Result{Observation: nil, ImplicitSignals: signals}
}
