package clonegate

import (
	"os"
	"time"

	"github.com/nateschmiedehaus/indexer-patrol/internal/supervisor"
	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// Options configures one Clean-Clone Gate invocation.
type Options struct {
	BaseDir               string
	TarballPath           string
	CloneTimeout          time.Duration
	CommandTimeout        time.Duration
	CommandStallTimeout   time.Duration
	BootstrapTimeout      time.Duration
	BootstrapStallTimeout time.Duration
	EmbeddingProvider     string
	EmbeddingModel        string
	KeepSandbox           bool
}

// commandResult pairs a Supervisor result with the combined output used
// for lock-signal scanning.
type commandResult struct {
	supervisor.Result
	Combined string
}

// runIndexerCommand spawns the Indexer binary with args inside workspace,
// using the same Supervisor timeout/stall semantics as agent runs, and
// returns its combined stdout+stderr for lock-signal scanning.
func runIndexerCommand(indexerPath, workspace string, args []string, opts Options) (commandResult, error) {
	return runIndexerCommandWithTimeouts(indexerPath, workspace, args, opts.CommandTimeout, opts.CommandStallTimeout)
}

// runBootstrapCommand is runIndexerCommand with the gate's
// bootstrap-specific timeout/stall budget, distinct from the budget
// applied to update/status/query.
func runBootstrapCommand(indexerPath, workspace string, opts Options) (commandResult, error) {
	args := []string{"bootstrap", "--mode", "fast", "--yes", "--non-interactive"}
	if opts.EmbeddingProvider != "" {
		args = append(args, "--embedding-provider", opts.EmbeddingProvider)
	}
	if opts.EmbeddingModel != "" {
		args = append(args, "--embedding-model", opts.EmbeddingModel)
	}
	return runIndexerCommandWithTimeouts(indexerPath, workspace, args, opts.BootstrapTimeout, opts.BootstrapStallTimeout)
}

func runIndexerCommandWithTimeouts(indexerPath, workspace string, args []string, timeout, stallTimeout time.Duration) (commandResult, error) {
	result, err := supervisor.Run(supervisor.Options{
		AgentBin:     indexerPath,
		Args:         args,
		WorkDir:      workspace,
		Timeout:      timeout,
		StallTimeout: stallTimeout,
	})
	if err != nil {
		return commandResult{}, err
	}
	return commandResult{Result: result, Combined: result.Stdout + "\n" + result.Stderr}, nil
}

func defaultedOptions(opts Options) Options {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 3 * time.Minute
	}
	if opts.CommandStallTimeout <= 0 {
		opts.CommandStallTimeout = 90 * time.Second
	}
	if opts.BootstrapTimeout <= 0 {
		opts.BootstrapTimeout = 2 * time.Minute
	}
	if opts.BootstrapStallTimeout <= 0 {
		opts.BootstrapStallTimeout = 30 * time.Second
	}
	return opts
}

// Run executes the Clean-Clone Gate for one source workspace: shallow
// clone into a fresh sandbox, sequential bootstrap/update/status, the
// fixed reference-question battery, and the durability scenarios.
func Run(repo types.TargetRepo, sourceWorkspace string, opts Options) (types.CloneGateReport, error) {
	opts = defaultedOptions(opts)

	sb, err := freshSandbox(sourceWorkspace, opts.TarballPath, opts.BaseDir, opts.CloneTimeout)
	if err != nil {
		return types.CloneGateReport{}, err
	}
	if !opts.KeepSandbox {
		defer os.RemoveAll(sb.TmpRoot)
	}

	report := types.CloneGateReport{Repo: repo, CreatedAt: time.Now()}
	var lockSignals []string

	addSignals := func(cr commandResult) {
		lockSignals = append(lockSignals, scanLockSignals(cr.Combined)...)
	}

	bootstrapRes, err := runBootstrapCommand(sb.InstalledIndexerPath, sb.Workspace, opts)
	if err != nil {
		return types.CloneGateReport{}, err
	}
	addSignals(bootstrapRes)

	updateRes, err := runIndexerCommand(sb.InstalledIndexerPath, sb.Workspace, []string{"update"}, opts)
	if err != nil {
		return types.CloneGateReport{}, err
	}
	addSignals(updateRes)

	statusRes, err := runIndexerCommand(sb.InstalledIndexerPath, sb.Workspace, []string{"status", "--format", "json"}, opts)
	if err != nil {
		return types.CloneGateReport{}, err
	}
	addSignals(statusRes)

	status, parseErr := parseStatusDocument(statusRes.Stdout)
	if parseErr != nil {
		report.HealthAssertions = []types.HealthAssertion{{Name: "status_document_parses", Passed: false, Detail: parseErr.Error()}}
	} else {
		report.HealthAssertions = evaluateHealth(status)
	}

	for _, q := range referenceQuestions {
		queryRes, err := runIndexerCommand(sb.InstalledIndexerPath, sb.Workspace, []string{"query", "--format", "json", q.Question}, opts)
		if err != nil {
			return types.CloneGateReport{}, err
		}
		addSignals(queryRes)
		relevant, _ := queryReturnsExpectedPath(queryRes.Stdout, q.ExpectedPathSubstrings)
		report.HealthAssertions = append(report.HealthAssertions, types.HealthAssertion{
			Name:   "reference_question:" + q.Question,
			Passed: relevant,
		})
	}

	report.Durability = runDurabilityScenarios(sb, opts)
	report.LockSignalsObserved = dedupeStrings(lockSignals)
	report.Passed = allPassed(report.HealthAssertions) && allDurabilityPassed(report.Durability)

	return report, nil
}

func allDurabilityPassed(results []types.DurabilityResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func dedupeStrings(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
