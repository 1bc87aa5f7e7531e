// Package aggregator merges PatrolReports into a deduplicated finding
// list, a construction-coverage set, and drift signals, optionally
// opening tracking tickets for findings that cross a severity/occurrence
// threshold.
package aggregator

import "github.com/nateschmiedehaus/indexer-patrol/internal/types"

// Result is the Aggregator's combined output.
type Result struct {
	Findings             []types.Finding
	ConstructionCoverage []string
	DriftSignals         []DriftSignal
	TicketOutcomes       []TicketOutcome
}

// Aggregate merges reports and, if ledger is non-nil, computes drift
// signals from its trailing window. If client is nil, a no-op client is
// used so ticketing never blocks aggregation.
func Aggregate(reports []types.PatrolReport, ledger *types.Ledger, client TicketClient) Result {
	if client == nil {
		client = NoopTicketClient()
	}

	findings := mergeFindings(reports)
	sortFindingsBySeverity(findings)

	var drift []DriftSignal
	if ledger != nil {
		drift = detectDrift(ledger.Entries)
	}

	return Result{
		Findings:            findings,
		ConstructionCoverage: constructionCoverage(reports),
		DriftSignals:         drift,
		TicketOutcomes:       ticketFindings(findings, client),
	}
}
