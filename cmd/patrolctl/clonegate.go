package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nateschmiedehaus/indexer-patrol/internal/clonegate"
	"github.com/nateschmiedehaus/indexer-patrol/internal/config"
	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

var cloneGateFlags struct {
	artifact             string
	sourceWorkspace      string
	keepSandbox          bool
	embeddingProvider    string
	embeddingModel       string
	allowProviderless    bool
	commandTimeoutMS     int
	bootstrapTimeoutMS   int
	bootstrapStallTimeMS int
	tarball              string
	repoName             string
}

var cloneGateCmd = &cobra.Command{
	Use:   "clone-gate",
	Short: "Run the deterministic clean-clone health lane against a source workspace",
	RunE:  runCloneGate,
}

func init() {
	cloneGateCmd.Flags().StringVar(&cloneGateFlags.artifact, "artifact", "", "output CloneGateReport path")
	cloneGateCmd.Flags().StringVar(&cloneGateFlags.sourceWorkspace, "source-workspace", ".", "workspace to shallow-clone")
	cloneGateCmd.Flags().BoolVar(&cloneGateFlags.keepSandbox, "keep-sandbox", false, "preserve the fresh sandbox on exit")
	cloneGateCmd.Flags().StringVar(&cloneGateFlags.embeddingProvider, "embedding-provider", "", "embedding provider passed through to the Indexer")
	cloneGateCmd.Flags().StringVar(&cloneGateFlags.embeddingModel, "embedding-model", "", "embedding model passed through to the Indexer")
	cloneGateCmd.Flags().BoolVar(&cloneGateFlags.allowProviderless, "allow-providerless", false, "allow bootstrap without an embedding provider configured")
	cloneGateCmd.Flags().IntVar(&cloneGateFlags.commandTimeoutMS, "command-timeout-ms", 0, "per-command timeout (0 = default)")
	cloneGateCmd.Flags().IntVar(&cloneGateFlags.bootstrapTimeoutMS, "bootstrap-timeout-ms", 0, "bootstrap wall-clock timeout (0 = default)")
	cloneGateCmd.Flags().IntVar(&cloneGateFlags.bootstrapStallTimeMS, "bootstrap-stall-timeout-ms", 0, "bootstrap stall timeout (0 = default)")
	cloneGateCmd.Flags().StringVar(&cloneGateFlags.tarball, "tarball", "", "path to the packaged Indexer tarball")
	cloneGateCmd.Flags().StringVar(&cloneGateFlags.repoName, "repo-name", "", "name recorded on the CloneGateReport (default: basename of source-workspace)")
	rootCmd.AddCommand(cloneGateCmd)
}

func runCloneGate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(&config.Config{Verbose: GetVerbose()})
	if err != nil {
		return fmt.Errorf("%w: load config: %v", types.ErrConfigInvalid, err)
	}

	provider := cloneGateFlags.embeddingProvider
	if provider == "" {
		provider = cfg.Embedding.Provider
	}
	if provider == "" && !cloneGateFlags.allowProviderless && !cfg.Agent.SkipHealthAssert {
		return fmt.Errorf("%w: no embedding provider configured; pass --embedding-provider or --allow-providerless", types.ErrConfigInvalid)
	}

	repoName := cloneGateFlags.repoName
	if repoName == "" {
		repoName = filepath.Base(cloneGateFlags.sourceWorkspace)
	}
	repo := types.TargetRepo{Name: repoName, LocalPath: cloneGateFlags.sourceWorkspace}

	opts := clonegate.Options{
		BaseDir:               cfg.BaseDir,
		TarballPath:           cloneGateFlags.tarball,
		CommandTimeout:        time.Duration(cloneGateFlags.commandTimeoutMS) * time.Millisecond,
		BootstrapTimeout:      time.Duration(cloneGateFlags.bootstrapTimeoutMS) * time.Millisecond,
		BootstrapStallTimeout: time.Duration(cloneGateFlags.bootstrapStallTimeMS) * time.Millisecond,
		EmbeddingProvider:     provider,
		EmbeddingModel:        cloneGateFlags.embeddingModel,
		KeepSandbox:           cloneGateFlags.keepSandbox,
	}
	if cloneGateFlags.embeddingModel == "" {
		opts.EmbeddingModel = cfg.Embedding.Model
	}

	report, err := clonegate.Run(repo, cloneGateFlags.sourceWorkspace, opts)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrHealthAssertionFailed, err)
	}

	artifactPath := cloneGateFlags.artifact
	if artifactPath == "" {
		artifactPath = filepath.Join(cfg.BaseDir, "release-evidence", fmt.Sprintf("clonegate-%d.json", time.Now().Unix()))
	}
	if err := writeJSONArtifact(artifactPath, report); err != nil {
		return fmt.Errorf("write clonegate artifact: %w", err)
	}

	verdictColor := color.New(color.FgGreen)
	if !report.Passed {
		verdictColor = color.New(color.FgRed)
	}
	verdictColor.Printf("clone-gate: %s (%d health assertions, %d durability scenarios)\n",
		passLabel(report.Passed), len(report.HealthAssertions), len(report.Durability))

	if len(report.LockSignalsObserved) > 0 {
		fmt.Printf("lock signals observed: %v\n", report.LockSignalsObserved)
	}

	if !report.Passed {
		for _, a := range report.HealthAssertions {
			if !a.Passed {
				fmt.Printf("  failed: %s %s\n", a.Name, a.Detail)
			}
		}
		for _, d := range report.Durability {
			if !d.Passed {
				fmt.Printf("  failed: %s %s\n", d.Scenario, d.Detail)
			}
		}
		os.Exit(1)
	}
	return nil
}

func passLabel(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}

func writeJSONArtifact(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
