// Package extractor parses agent output into the structured Observation
// schema, via a terminal JSON block or, failing that, incremental
// sentinel-prefixed markers, and detects implicit fallback-behavior
// signals in the raw text.
package extractor

// Fixed sentinel tokens. These never vary; they are the contract the
// agent prompt asks the agent to emit.
const (
	TerminalStartSentinel  = "===PATROL_OBSERVATION_START==="
	TerminalEndSentinel    = "===PATROL_OBSERVATION_END==="
	IncrementalMarkerToken = "PATROL_MARKER"
)
