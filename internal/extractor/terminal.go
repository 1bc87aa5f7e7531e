package extractor

import (
	"encoding/json"
	"strings"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// extractTerminalBlock scans text for the start/end sentinel pair,
// strips optional code-fence decoration, and parses the bracketed
// content as a full Observation. Only the first such block is used;
// later duplicate blocks are ignored.
func extractTerminalBlock(text string) (*types.Observation, bool) {
	startIdx := strings.Index(text, TerminalStartSentinel)
	if startIdx < 0 {
		return nil, false
	}
	afterStart := startIdx + len(TerminalStartSentinel)

	endIdx := strings.Index(text[afterStart:], TerminalEndSentinel)
	if endIdx < 0 {
		return nil, false
	}

	body := text[afterStart : afterStart+endIdx]
	body = stripCodeFence(body)
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, false
	}

	var obs types.Observation
	if err := json.Unmarshal([]byte(body), &obs); err != nil {
		return nil, false
	}
	return &obs, true
}

// stripCodeFence removes a leading/trailing ```(json)? fence if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimPrefix(s, "\n")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return s
}
