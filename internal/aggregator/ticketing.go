package aggregator

import (
	"fmt"
	"strings"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// TicketOutcome is the result of the Aggregator's issue-ticketing side
// effect for one finding.
type TicketOutcome struct {
	FindingKey string `json:"finding_key"`
	Status     string `json:"status"`
	TicketID   string `json:"ticket_id,omitempty"`
}

const (
	ticketStatusCreated               = "created"
	ticketStatusCommented             = "commented"
	ticketStatusSkipped               = "skipped"
	ticketStatusAcceptedPendingCreate = "accepted_pending_creation"
)

// TicketClient is the external issue tracker the Aggregator opens
// tracking tickets against. Its absence must never corrupt aggregation
// output: see noopTicketClient.
type TicketClient interface {
	FindByMarker(marker string) (ticketID string, found bool, err error)
	FindSimilarTitle(words []string) (ticketID string, found bool, err error)
	Create(finding types.Finding, marker string) (ticketID string, err error)
	AddComment(ticketID, comment string) error
}

// noopTicketClient is used when no external ticket system is
// configured. It reports every candidate as accepted_pending_creation
// rather than failing, so the Aggregator still emits a complete
// summary.
type noopTicketClient struct{}

// NoopTicketClient returns a TicketClient that records intent without
// ever reaching a real tracker.
func NoopTicketClient() TicketClient { return noopTicketClient{} }

func (noopTicketClient) FindByMarker(string) (string, bool, error)       { return "", false, nil }
func (noopTicketClient) FindSimilarTitle([]string) (string, bool, error) { return "", false, nil }
func (noopTicketClient) Create(types.Finding, string) (string, error)    { return "", nil }
func (noopTicketClient) AddComment(string, string) error                 { return nil }

// shouldTicket decides whether finding crosses the creation threshold
// for its severity: critical/high always, medium at occurrence >= 2,
// low at occurrence >= 3.
func shouldTicket(finding types.Finding) bool {
	switch finding.Severity {
	case types.SeverityCritical, types.SeverityHigh:
		return true
	case types.SeverityMedium:
		return finding.OccurrenceCount >= 2
	case types.SeverityLow:
		return finding.OccurrenceCount >= 3
	default:
		return false
	}
}

// findingMarker is the stable token embedded in a ticket so a
// re-aggregation can find its own prior ticket.
func findingMarker(finding types.Finding) string {
	return fmt.Sprintf("[patrol-finding:%s]", finding.Key)
}

// significantWords returns the first four words of s longer than three
// characters, lowercased, for fuzzy title matching.
func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if len(w) <= 3 {
			continue
		}
		out = append(out, w)
		if len(out) == 4 {
			break
		}
	}
	return out
}

// ticketFindings runs the per-finding ticketing decision against
// client, returning one TicketOutcome per candidate finding.
func ticketFindings(findings []types.Finding, client TicketClient) []TicketOutcome {
	var outcomes []TicketOutcome
	for _, finding := range findings {
		if !shouldTicket(finding) {
			outcomes = append(outcomes, TicketOutcome{FindingKey: finding.Key, Status: ticketStatusSkipped})
			continue
		}

		marker := findingMarker(finding)
		if existingID, found, err := client.FindByMarker(marker); err == nil && found {
			comment := fmt.Sprintf("corroborated again: occurrence_count=%d", finding.OccurrenceCount)
			_ = client.AddComment(existingID, comment)
			outcomes = append(outcomes, TicketOutcome{FindingKey: finding.Key, Status: ticketStatusCommented, TicketID: existingID})
			continue
		}

		if existingID, found, err := client.FindSimilarTitle(significantWords(finding.Title)); err == nil && found {
			comment := fmt.Sprintf("corroborated by %s (occurrence_count=%d)", marker, finding.OccurrenceCount)
			_ = client.AddComment(existingID, comment)
			outcomes = append(outcomes, TicketOutcome{FindingKey: finding.Key, Status: ticketStatusCommented, TicketID: existingID})
			continue
		}

		ticketID, err := client.Create(finding, marker)
		if err != nil || ticketID == "" {
			outcomes = append(outcomes, TicketOutcome{FindingKey: finding.Key, Status: ticketStatusAcceptedPendingCreate})
			continue
		}
		outcomes = append(outcomes, TicketOutcome{FindingKey: finding.Key, Status: ticketStatusCreated, TicketID: ticketID})
	}
	return outcomes
}
