package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	cfgFile string
)

// rootCmd is the base command when patrolctl is called without any
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "patrolctl",
	Short: "Release-gate supervision core for the Indexer CLI",
	Long: `patrolctl runs supervised Indexer agent sessions against a fleet of
target repos, extracts structured observations from their output, and
renders a pass/fail verdict a release pipeline can gate on.

Commands:
  run          Supervise agent runs across the repo manifest
  clone-gate   Run the deterministic clean-clone health lane
  retain       Apply retention limits to ephemeral patrol artifacts`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			_ = os.Setenv("PATROL_CONFIG", cfgFile)
		}
	},
}

// Execute runs the root command, exiting 1 on any error the subcommand
// did not already translate into an os.Exit call of its own.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .patrol/config.yaml)")
}

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool {
	return verbose
}

// VerbosePrintf prints to stderr only when verbose mode is enabled.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
