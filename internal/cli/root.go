package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "tmaps",
	Short: "Command line client for TissueMAPS experiments",
	Long: `tmaps talks to a TissueMAPS data service.

List, inspect, create and delete experiments, submit workflows, and keep
local snapshots of experiment records for offline inspection.

Configuration is read from TMAPS_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command. ctx is handed to every command.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log failed service calls to stderr")

	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(migrateCmd)
}
