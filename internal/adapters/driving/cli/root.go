// Package cli provides the sightline command line interface.
// It is a driving adapter: each command opens a Runtime, calls core
// services through their ports and prints the outcome.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sightline/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// rootOpts holds the persistent flags.
var rootOpts Options

var rootCmd = &cobra.Command{
	Use:   "sightline",
	Short: "Visual waypoint navigation",
	Long: `sightline guides a walker between places in a building using only
camera frames and a compass.

Record a route once with "sightline record", then follow it with
"sightline navigate". "sightline localize" works out where you are
from a slow 360° turn.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(rootOpts.Verbose)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "log progress to stderr")
	flags.StringVar(&rootOpts.DataDir, "data-dir", "", "directory for the path database (default ~/.sightline/data)")
	flags.StringVar(&rootOpts.ConfigDir, "config-dir", "", "directory for config.toml (default ~/.sightline)")
	flags.BoolVar(&rootOpts.Ephemeral, "ephemeral", false, "keep paths and settings in memory only")
}

// SetVersion sets the version reported by "sightline version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
