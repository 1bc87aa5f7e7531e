package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/nateschmiedehaus/indexer-patrol/internal/aggregator"
	"github.com/nateschmiedehaus/indexer-patrol/internal/config"
	"github.com/nateschmiedehaus/indexer-patrol/internal/extractor"
	"github.com/nateschmiedehaus/indexer-patrol/internal/ledger"
	"github.com/nateschmiedehaus/indexer-patrol/internal/manifest"
	"github.com/nateschmiedehaus/indexer-patrol/internal/sandbox"
	"github.com/nateschmiedehaus/indexer-patrol/internal/storage"
	"github.com/nateschmiedehaus/indexer-patrol/internal/supervisor"
	"github.com/nateschmiedehaus/indexer-patrol/internal/types"

	patrolpolicy "github.com/nateschmiedehaus/indexer-patrol/internal/policy"
)

var runFlags struct {
	mode        string
	repo        string
	maxRepos    int
	timeoutMS   int
	keep        bool
	artifact    string
	agentBin    string
	interactive bool
	manifest    string
	tarball     string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Supervise agent runs across the repo manifest and render a pass/fail verdict",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.mode, "mode", string(types.ModeQuick), "quick|full|release")
	runCmd.Flags().StringVar(&runFlags.repo, "repo", "", "restrict to one manifest entry")
	runCmd.Flags().IntVar(&runFlags.maxRepos, "max-repos", 0, "override repo count (0 = mode default)")
	runCmd.Flags().IntVar(&runFlags.timeoutMS, "timeout-ms", 0, "per-run wall-clock timeout in milliseconds (0 = mode default)")
	runCmd.Flags().BoolVar(&runFlags.keep, "keep", false, "preserve sandboxes on exit (marks them protected)")
	runCmd.Flags().StringVar(&runFlags.artifact, "artifact", "", "output report path (default: <base-dir>/reports/<timestamp>.json)")
	runCmd.Flags().StringVar(&runFlags.agentBin, "agent-bin", "", "force a specific agent binary")
	runCmd.Flags().BoolVarP(&runFlags.interactive, "interactive", "i", false, "pause between sandbox stages awaiting stdin")
	runCmd.Flags().StringVar(&runFlags.manifest, "manifest", ".patrol/manifest.json", "repo manifest path")
	runCmd.Flags().StringVar(&runFlags.tarball, "tarball", "", "path to the packaged Indexer tarball")
	rootCmd.AddCommand(runCmd)
}

var modeDefaults = map[types.Mode]struct {
	repos     int
	timeoutMS int
}{
	types.ModeQuick:   {repos: 1, timeoutMS: 5 * 60 * 1000},
	types.ModeFull:    {repos: 5, timeoutMS: 15 * 60 * 1000},
	types.ModeRelease: {repos: 10, timeoutMS: 20 * 60 * 1000},
}

func runRun(cmd *cobra.Command, args []string) error {
	mode := types.Mode(runFlags.mode)
	if !mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", types.ErrConfigInvalid, runFlags.mode)
	}
	defaults := modeDefaults[mode]

	maxRepos := runFlags.maxRepos
	if maxRepos <= 0 {
		maxRepos = defaults.repos
	}
	timeout := time.Duration(runFlags.timeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Duration(defaults.timeoutMS) * time.Millisecond
	}

	cfg, err := config.Load(&config.Config{Verbose: GetVerbose()})
	if err != nil {
		return fmt.Errorf("%w: load config: %v", types.ErrConfigInvalid, err)
	}
	if runFlags.agentBin != "" {
		cfg.Agent.Bin = runFlags.agentBin
	}
	agentBin := cfg.Agent.Bin
	if agentBin == "" {
		agentBin = "claude"
	}

	m, err := manifest.Load(runFlags.manifest)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrConfigInvalid, err)
	}

	var repos []types.TargetRepo
	if runFlags.repo != "" {
		r, ok := m.Find(runFlags.repo)
		if !ok {
			return fmt.Errorf("%w: repo %q not found in manifest", types.ErrConfigInvalid, runFlags.repo)
		}
		repos = []types.TargetRepo{r}
	} else {
		var order []int
		if mode == types.ModeQuick {
			order = manifest.QuickOrder(len(m.Repos), rand.New(rand.NewSource(time.Now().UnixNano())))
		} else {
			order = manifest.RotationOrder(m.Repos)
		}
		repos = m.Select(maxRepos, order)
	}

	store := storage.NewFileStorage(storage.WithBaseDir(cfg.BaseDir))
	if err := store.Init(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrStorageSetupFailure, err)
	}

	bold := color.New(color.Bold)
	bar := progressbar.Default(int64(len(repos)), "running patrol")

	var runs []types.AgentRun
	for i, repo := range repos {
		if runFlags.interactive {
			pauseForStdin(fmt.Sprintf("about to provision sandbox for %s, press enter to continue", repo.Name))
		}

		variant := variantForIndex(i)
		run := executeOneRun(repo, variant, agentBin, timeout, cfg)
		runs = append(runs, run)
		_ = bar.Add(1)
	}
	fmt.Println()

	report := types.PatrolReport{
		Kind:      "PatrolReport.v1",
		Mode:      mode,
		CreatedAt: time.Now(),
		Runs:      runs,
	}
	report.Aggregate = aggregator.ComputeRunAggregate(runs)
	report.Policy = patrolpolicy.Evaluate(mode, runs)
	report.StorageTelemetry = computeStorageTelemetry(cfg.BaseDir)
	if cap := cfg.Storage.CapTotalBytes; cap > 0 && report.StorageTelemetry.TotalBytes > cap {
		fmt.Printf("  warning: patrol scratch data is %d bytes, over the configured %d byte cap; run `patrolctl retain` to reclaim space\n",
			report.StorageTelemetry.TotalBytes, cap)
	}

	ledgerPath := filepath.Join(cfg.BaseDir, "ledger.json")
	l := ledger.LoadOrEmpty(ledgerPath)
	l.Append(ledger.EntryFromReport(report))
	if err := ledger.Save(ledgerPath, l); err != nil {
		VerbosePrintf("warning: could not save ledger: %v\n", err)
	}

	result := aggregator.Aggregate([]types.PatrolReport{report}, l, nil)

	artifactPath := runFlags.artifact
	if artifactPath == "" {
		artifactPath = filepath.Join(cfg.BaseDir, "reports", fmt.Sprintf("%d.json", report.CreatedAt.Unix()))
	}
	if _, err := store.WriteArtifact(artifactPath, &report); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := store.AppendHistory(&report); err != nil {
		VerbosePrintf("warning: could not append report history: %v\n", err)
	}

	observationsExtracted := 0
	for _, r := range runs {
		if r.Observation != nil {
			observationsExtracted++
		}
	}

	printSummary(bold, report, result, observationsExtracted)

	if observationsExtracted > 0 && report.Policy.Enforcement == types.EnforcementAllowed {
		return nil
	}
	cmd.SilenceErrors = true
	os.Exit(1)
	return nil
}

func executeOneRun(repo types.TargetRepo, variant types.TaskVariant, agentBin string, timeout time.Duration, cfg *config.Config) types.AgentRun {
	startedAt := time.Now()

	sb, bootstrapResult, err := sandbox.Provision(repo, sandbox.Options{
		BaseDir:               cfg.BaseDir,
		TarballPath:           runFlags.tarball,
		Interactive:           runFlags.interactive,
		BootstrapTimeout:      2 * time.Minute,
		BootstrapStallTimeout: 30 * time.Second,
		Verbosef:              VerbosePrintf,
	})
	if err != nil {
		return types.AgentRun{
			Repo:              repo,
			TaskVariant:       variant,
			StartedAt:         startedAt,
			DurationMS:        time.Since(startedAt).Milliseconds(),
			TerminationReason: types.TerminationSpawnError,
		}
	}
	if runFlags.keep {
		sb.Protected = true
	}

	bootstrapFailed := bootstrapResult.ExitCode != 0 || bootstrapResult.TerminationReason != types.TerminationNormal
	bootstrapDetail := ""
	if bootstrapFailed {
		bootstrapDetail = fmt.Sprintf("termination=%s exit_code=%d", bootstrapResult.TerminationReason, bootstrapResult.ExitCode)
		VerbosePrintf("bootstrap failed for %s: %s\n", repo.Name, bootstrapDetail)
	}

	result, runErr := supervisor.Run(supervisor.Options{
		AgentBin:     agentBin,
		Prompt:       promptFor(variant),
		WorkDir:      sb.Workspace,
		Timeout:      timeout,
		EventStream:  true,
		OnHeartbeat: func(hb supervisor.Heartbeat) {
			VerbosePrintf("heartbeat: elapsed=%s stdout=%dB stderr=%dB\n", hb.Elapsed, hb.StdoutBytes, hb.StderrBytes)
		},
	})
	if runErr != nil {
		return types.AgentRun{
			Repo:              repo,
			TaskVariant:       variant,
			StartedAt:         startedAt,
			DurationMS:        time.Since(startedAt).Milliseconds(),
			TerminationReason: types.TerminationSpawnError,
			BootstrapFailed:   bootstrapFailed,
			BootstrapDetail:   bootstrapDetail,
		}
	}

	text := result.AssembledText
	if text == "" {
		text = result.Stdout
	}
	extraction := extractor.Extract(text)

	return types.AgentRun{
		Repo:              repo,
		TaskVariant:       variant,
		StartedAt:         startedAt,
		BootstrapFailed:   bootstrapFailed,
		BootstrapDetail:   bootstrapDetail,
		DurationMS:        result.Duration.Milliseconds(),
		ExitCode:          result.ExitCode,
		TerminationReason: result.TerminationReason,
		Observation:       extraction.Observation,
		ImplicitSignals:   extraction.ImplicitSignals,
		RecoveryAudit:     result.RecoveryAudit,
	}
}

func printSummary(bold *color.Color, report types.PatrolReport, result aggregator.Result, observationsExtracted int) {
	bold.Println("patrol summary")
	fmt.Printf("  repos: %d\n", len(report.Runs))
	fmt.Printf("  observations extracted: %d\n", observationsExtracted)
	fmt.Printf("  mean nps: %.1f\n", report.Aggregate.MeanNPS)
	fmt.Printf("  implicit fallback rate: %.2f\n", report.Aggregate.ImplicitFallbackRate)
	fmt.Printf("  construction coverage: %d\n", report.Aggregate.ConstructionCoverage)
	fmt.Printf("  findings: %d\n", len(result.Findings))

	verdictColor := color.New(color.FgGreen)
	if report.Policy.Enforcement == types.EnforcementBlocked {
		verdictColor = color.New(color.FgRed)
	}
	verdictColor.Printf("  policy verdict: %s (required=%s observed=%s)\n", report.Policy.Enforcement, report.Policy.Required, report.Policy.Observed)

	if report.Policy.Enforcement == types.EnforcementBlocked {
		fmt.Printf("  failure: policy gate blocked release (required %s evidence, observed %s)\n", report.Policy.Required, report.Policy.Observed)
	} else if observationsExtracted == 0 {
		fmt.Println("  failure: no observation extracted from any run")
	}
}

func computeStorageTelemetry(baseDir string) types.StorageTelemetry {
	var total int64
	var count int
	_ = filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += info.Size()
		count++
		return nil
	})
	return types.StorageTelemetry{TotalBytes: total, EntryCount: count, CapturedAt: time.Now()}
}

func pauseForStdin(message string) {
	fmt.Println(message)
	reader := bufio.NewReader(os.Stdin)
	_, _ = reader.ReadString('\n')
}
