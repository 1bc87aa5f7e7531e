// Package storage persists PatrolReport artifacts to disk: the
// single-file artifact a CLI invocation writes via --artifact, and the
// append-only JSONL report history kept under a workspace's base
// directory for later ledger/drift bookkeeping.
package storage

import "github.com/nateschmiedehaus/indexer-patrol/internal/types"

// ReportStore is the interface for persisting PatrolReports.
type ReportStore interface {
	// WriteArtifact writes report as the single immutable artifact file
	// at path, returning the path written.
	WriteArtifact(path string, report *types.PatrolReport) (string, error)

	// AppendHistory appends report to the base directory's JSONL report
	// history.
	AppendHistory(report *types.PatrolReport) error

	// Init creates the required directory structure.
	Init() error
}
