package clonegate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// parseStatusDocument parses the JSON object from `indexer status
// --format json` stdout. It tolerates leading log lines by scanning for
// the first `{` and trailing content by scanning back from the last `}`.
func parseStatusDocument(stdout string) (types.StatusDocument, error) {
	start := strings.IndexByte(stdout, '{')
	end := strings.LastIndexByte(stdout, '}')
	if start < 0 || end < start {
		return types.StatusDocument{}, fmt.Errorf("no JSON object found in status output")
	}

	var doc types.StatusDocument
	if err := json.Unmarshal([]byte(stdout[start:end+1]), &doc); err != nil {
		return types.StatusDocument{}, fmt.Errorf("parse status document: %w", err)
	}
	return doc, nil
}
