package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nateschmiedehaus/indexer-patrol/internal/config"
	"github.com/nateschmiedehaus/indexer-patrol/internal/retention"
	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

var retainFlags struct {
	workspace string
	context   string
	dryRun    bool
	auditOut  string
}

var retainCmd = &cobra.Command{
	Use:   "retain",
	Short: "Apply the retention engine's age/count limits to patrol artifacts",
	RunE:  runRetain,
}

func init() {
	retainCmd.Flags().StringVar(&retainFlags.workspace, "workspace", "", "base directory to discover artifacts under (default: config base-dir)")
	retainCmd.Flags().StringVar(&retainFlags.context, "context", string(retention.ContextAuto), "auto|repo|installed")
	retainCmd.Flags().BoolVar(&retainFlags.dryRun, "dry-run", false, "report what would be deleted without deleting it")
	retainCmd.Flags().StringVar(&retainFlags.auditOut, "audit-out", "", "write the full candidate/deletion audit to this path")
	rootCmd.AddCommand(retainCmd)
}

type retainAudit struct {
	Context    string                `json:"context"`
	DryRun     bool                  `json:"dryRun"`
	Candidates []retention.Candidate `json:"candidates"`
	Deleted    []string              `json:"deleted,omitempty"`
	RanAt      time.Time             `json:"ranAt"`
}

func runRetain(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(&config.Config{Verbose: GetVerbose()})
	if err != nil {
		return fmt.Errorf("%w: load config: %v", types.ErrConfigInvalid, err)
	}

	workspace := retainFlags.workspace
	if workspace == "" {
		workspace = cfg.BaseDir
	}

	ctx := retention.Context(retainFlags.context)
	switch ctx {
	case retention.ContextAuto, retention.ContextRepo, retention.ContextInstalled:
	default:
		return fmt.Errorf("%w: unknown --context %q", types.ErrConfigInvalid, retainFlags.context)
	}

	candidates, err := retention.Discover(workspace, ctx)
	if err != nil {
		return fmt.Errorf("discover artifacts: %w", err)
	}

	limits, err := limitsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrConfigInvalid, err)
	}

	now := time.Now()
	audit := retainAudit{Context: string(ctx), DryRun: retainFlags.dryRun, Candidates: candidates, RanAt: now}

	if retainFlags.dryRun {
		toDelete := retention.SelectForDeletion(candidates, limits, now)
		for _, c := range toDelete {
			audit.Deleted = append(audit.Deleted, c.Path)
		}
		fmt.Printf("retain (dry-run): %d candidates, %d would be deleted\n", len(candidates), len(toDelete))
	} else {
		metrics := retention.NewMetrics(prometheus.DefaultRegisterer)
		driver := &retention.Driver{Limits: limits, Metrics: metrics}
		removed := driver.Run(candidates, now)
		audit.Deleted = removed
		fmt.Printf("retain: %d candidates, %d deleted\n", len(candidates), len(removed))
	}

	if retainFlags.auditOut != "" {
		if err := writeJSONArtifact(retainFlags.auditOut, audit); err != nil {
			return fmt.Errorf("write audit: %w", err)
		}
	}
	return nil
}

// limitsFromConfig applies the configured global storage caps
// (PATROL_STORAGE_CAP_*, or the equivalent config-file/flag settings) as
// overrides onto the two transient classes they bound: patrol reports
// and temp sandboxes. Release evidence stays protected regardless.
func limitsFromConfig(cfg *config.Config) (map[retention.Class]retention.Limits, error) {
	overrides := map[retention.Class]retention.Limits{}

	if cfg.Storage.CapAgeHours > 0 || cfg.Storage.CapEntries > 0 {
		reportLimits := retention.DefaultLimits()[retention.ClassPatrolReports]
		sandboxLimits := retention.DefaultLimits()[retention.ClassTempSandboxes]
		if cfg.Storage.CapAgeHours > 0 {
			reportLimits.MaxAge = time.Duration(cfg.Storage.CapAgeHours) * time.Hour
			sandboxLimits.MaxAge = time.Duration(cfg.Storage.CapAgeHours) * time.Hour
		}
		if cfg.Storage.CapEntries > 0 {
			reportLimits.MaxCount = cfg.Storage.CapEntries
			sandboxLimits.MaxCount = cfg.Storage.CapEntries
		}
		overrides[retention.ClassPatrolReports] = reportLimits
		overrides[retention.ClassTempSandboxes] = sandboxLimits
	}

	if err := retention.ValidateOverrides(overrides); err != nil {
		return nil, err
	}
	return retention.ApplyOverrides(overrides), nil
}
