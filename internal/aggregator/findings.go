package aggregator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// findingKey derives the deterministic dedup key for a category/title
// pair: lowercased, non-alphanumeric runs collapsed to a single dash.
func findingKey(category, title string) string {
	slug := func(s string) string {
		s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
		return strings.Trim(s, "-")
	}
	return slug(category) + ":" + slug(title)
}

// mergeFindings walks every run's negative findings, inserting or
// merging into the accumulator map by dedup key, then adds synthetic
// findings for the report's operational failures.
func mergeFindings(reports []types.PatrolReport) []types.Finding {
	byKey := map[string]*types.Finding{}
	order := []string{}

	upsert := func(key string, seed types.Finding) {
		existing, ok := byKey[key]
		if !ok {
			seed.Key = key
			seed.OccurrenceCount = 1
			byKey[key] = &seed
			order = append(order, key)
			return
		}
		mergeInto(existing, seed)
	}

	for _, report := range reports {
		for _, run := range report.Runs {
			if run.Observation == nil {
				continue
			}
			for _, nf := range run.Observation.NegativeFindings {
				key := findingKey(nf.Category, nf.Title)
				upsert(key, types.Finding{
					Category:       nf.Category,
					Severity:       nf.Severity,
					Title:          nf.Title,
					Detail:         nf.Detail,
					SuggestedFix:   nf.SuggestedFix,
					EffortEstimate: nf.EffortEstimate,
					NPSImpact:      nf.NPSImpact,
					Repos:          []string{run.Repo.Name},
					FirstSeen:      run.StartedAt,
					Transcripts:    transcriptList(run.TranscriptPath),
				})
			}
		}

		for _, finding := range syntheticFindings(report) {
			upsert(finding.Key, finding)
		}
	}

	out := make([]types.Finding, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	return out
}

func transcriptList(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}

// mergeInto folds seed into existing per the merge rules: increment
// occurrenceCount, union repos, keep the longer detail, keep the first
// non-empty suggestedFix, union transcripts.
func mergeInto(existing *types.Finding, seed types.Finding) {
	existing.OccurrenceCount++
	existing.Repos = unionStrings(existing.Repos, seed.Repos)
	if len(seed.Detail) > len(existing.Detail) {
		existing.Detail = seed.Detail
	}
	if existing.SuggestedFix == "" && seed.SuggestedFix != "" {
		existing.SuggestedFix = seed.SuggestedFix
	}
	existing.Transcripts = unionStrings(existing.Transcripts, seed.Transcripts)
}

func unionStrings(a, b []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// syntheticFindings derives findings from operational failures: runs
// with no observation, timeouts, nonzero exits, spawn errors, and a
// blocked policy verdict.
func syntheticFindings(report types.PatrolReport) []types.Finding {
	var out []types.Finding
	sev := operationalSeverity(report.Mode)

	for _, run := range report.Runs {
		switch {
		case run.TerminationReason == types.TerminationSpawnError:
			out = append(out, operationalFinding("runtime", "patrol-run-execution-error", sev, run))
		case run.Observation != nil:
			// observation present: no operational-failure finding.
		case run.TerminationReason == types.TerminationTimeout, run.TerminationReason == types.TerminationStall:
			out = append(out, operationalFinding("runtime", "patrol-run-timeout-no-observation", sev, run))
		case run.ExitCode != 0:
			out = append(out, operationalFinding("runtime", "patrol-run-nonzero-no-observation", sev, run))
		default:
			out = append(out, operationalFinding("quality", "patrol-run-missing-observation", sev, run))
		}
	}

	if report.Policy.Enforcement == types.EnforcementBlocked {
		out = append(out, types.Finding{
			Key:             findingKey("policy", "patrol-policy-gate-blocked"),
			Category:        "policy",
			Severity:        types.SeverityCritical,
			Title:           "patrol-policy-gate-blocked",
			Detail:          fmt.Sprintf("required=%s observed=%s", report.Policy.Required, report.Policy.Observed),
			OccurrenceCount: 1,
			FirstSeen:       report.CreatedAt,
		})
	}

	return out
}

func operationalFinding(category, title string, sev types.Severity, run types.AgentRun) types.Finding {
	return types.Finding{
		Key:             findingKey(category, title),
		Category:        category,
		Severity:        sev,
		Title:           title,
		Detail:          fmt.Sprintf("repo=%s exit_code=%d termination=%s", run.Repo.Name, run.ExitCode, run.TerminationReason),
		Repos:           []string{run.Repo.Name},
		OccurrenceCount: 1,
		FirstSeen:       run.StartedAt,
		Transcripts:     transcriptList(run.TranscriptPath),
	}
}

// operationalSeverity scales synthetic operational-failure severity
// with mode: a missing observation on a release run is far more urgent
// than the same gap on a quick run.
func operationalSeverity(mode types.Mode) types.Severity {
	switch mode {
	case types.ModeRelease:
		return types.SeverityCritical
	case types.ModeFull:
		return types.SeverityHigh
	default:
		return types.SeverityMedium
	}
}
