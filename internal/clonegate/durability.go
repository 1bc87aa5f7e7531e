package clonegate

import "github.com/nateschmiedehaus/indexer-patrol/internal/types"

type durabilityScenario struct {
	kind     types.DurabilityScenario
	mutate   func(sb types.Sandbox, opts Options) error
	expected types.BootstrapReason
}

var durabilityScenarios = []durabilityScenario{
	{types.ScenarioBranchSwitch, branchSwitchMutation, types.BootstrapReasonIndexedAncestor},
	{types.ScenarioHistoryRewrite, historyRewriteMutation, types.BootstrapReasonHeadAncestor},
	{types.ScenarioDivergentRebase, divergentRebaseMutation, types.BootstrapReasonDiverged},
}

// runDurabilityScenarios executes each repository-history manipulation
// in sequence against the already-bootstrapped sandbox, checking that
// status reports the expected bootstrapReason relation, that update
// recovers a healthy index, and that a reference query still resolves.
func runDurabilityScenarios(sb types.Sandbox, opts Options) []types.DurabilityResult {
	var results []types.DurabilityResult

	for _, scenario := range durabilityScenarios {
		result := types.DurabilityResult{
			Scenario:                scenario.kind,
			ExpectedBootstrapReason: scenario.expected,
		}

		if err := scenario.mutate(sb, opts); err != nil {
			result.Detail = err.Error()
			results = append(results, result)
			continue
		}

		statusRes, err := runIndexerCommand(sb.InstalledIndexerPath, sb.Workspace, []string{"status", "--format", "json"}, opts)
		if err != nil {
			result.Detail = err.Error()
			results = append(results, result)
			continue
		}
		status, parseErr := parseStatusDocument(statusRes.Stdout)
		if parseErr != nil {
			result.Detail = parseErr.Error()
			results = append(results, result)
			continue
		}
		result.ObservedBootstrapReason = status.BootstrapReason

		if _, err := runIndexerCommand(sb.InstalledIndexerPath, sb.Workspace, []string{"update"}, opts); err == nil {
			if postStatusRes, err := runIndexerCommand(sb.InstalledIndexerPath, sb.Workspace, []string{"status", "--format", "json"}, opts); err == nil {
				if postStatus, perr := parseStatusDocument(postStatusRes.Stdout); perr == nil {
					result.PostUpdateHealthy = allPassed(evaluateHealth(postStatus))
				}
			}
		}

		if queryRes, err := runIndexerCommand(sb.InstalledIndexerPath, sb.Workspace, []string{"query", "--format", "json", referenceQuestions[0].Question}, opts); err == nil {
			relevant, _ := queryReturnsExpectedPath(queryRes.Stdout, referenceQuestions[0].ExpectedPathSubstrings)
			result.PostUpdateQueryRelevant = relevant
		}

		result.Passed = result.ObservedBootstrapReason == result.ExpectedBootstrapReason &&
			result.PostUpdateHealthy && result.PostUpdateQueryRelevant
		results = append(results, result)
	}

	return results
}
