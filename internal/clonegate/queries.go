package clonegate

import (
	"encoding/json"
	"strings"
)

// referenceQuestion pairs a fixed natural-language question with the
// file-path substrings a healthy index is expected to surface as
// relevant.
type referenceQuestion struct {
	Question               string
	ExpectedPathSubstrings []string
}

// referenceQuestions is the fixed battery run against every clone. It is
// hard-coded rather than derived per-repo: the gate exercises the
// Indexer's general query path, not repo-specific knowledge.
var referenceQuestions = []referenceQuestion{
	{
		Question:               "where is the application entry point",
		ExpectedPathSubstrings: []string{"main.go", "index.js", "index.ts", "__main__.py", "cmd/"},
	},
	{
		Question:               "where are dependencies declared",
		ExpectedPathSubstrings: []string{"go.mod", "package.json", "requirements.txt", "Cargo.toml"},
	},
	{
		Question:               "where is the test suite",
		ExpectedPathSubstrings: []string{"_test.go", "test/", "tests/", "spec.ts", "spec.js"},
	},
}

// queryResult is the wire shape of `indexer query --format json`.
type queryResult struct {
	Results []struct {
		Path string `json:"path"`
	} `json:"results"`
}

// queryReturnsExpectedPath reports whether any result path in stdout
// contains one of expected.
func queryReturnsExpectedPath(stdout string, expected []string) (bool, error) {
	start := strings.IndexByte(stdout, '{')
	if start < 0 {
		return false, nil
	}
	var qr queryResult
	if err := json.Unmarshal([]byte(stdout[start:]), &qr); err != nil {
		return false, err
	}
	for _, r := range qr.Results {
		for _, substr := range expected {
			if strings.Contains(r.Path, substr) {
				return true, nil
			}
		}
	}
	return false, nil
}
