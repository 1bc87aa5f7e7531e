package extractor

import (
	"regexp"
	"strings"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

var grepFallbackPattern = regexp.MustCompile(`(?i)\b(grep\s+-r|grep\s+--recursive|find\s+\S*\s+-name)\b`)

var fileReadFallbackPattern = regexp.MustCompile(`(?i)\b(cat|head|tail)\s+\S+\.(go|ts|tsx|js|jsx|py|rb|java|rs|c|cc|cpp|h|hpp)\b`)

// commandFailureMarkers lists substrings that denote a failed shell
// command in raw agent transcript output.
var commandFailureMarkers = []string{
	"command not found",
	"no such file or directory",
	"permission denied",
	"exit code 1",
	"exit status 1",
	"fatal:",
	"error:",
}

// abortedEarlyByteThreshold is the output-length cutoff below which a
// transcript with no terminal sentinel is flagged as aborted early.
const abortedEarlyByteThreshold = 200

// detectImplicitSignals runs over the raw assembled output, independent
// of whether a structured Observation could be extracted.
func detectImplicitSignals(text string) types.ImplicitSignals {
	lower := strings.ToLower(text)

	signals := types.ImplicitSignals{
		GrepFallback:     grepFallbackPattern.MatchString(text),
		FileReadFallback: fileReadFallbackPattern.MatchString(text),
	}

	for _, marker := range commandFailureMarkers {
		signals.CommandFailures += strings.Count(lower, marker)
	}

	hasSentinel := strings.Contains(text, TerminalStartSentinel)
	if len(strings.TrimSpace(text)) < abortedEarlyByteThreshold && !hasSentinel {
		signals.AbortedEarly = true
	}

	return signals
}
