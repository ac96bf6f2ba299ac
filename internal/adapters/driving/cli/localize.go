package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var localizeCmd = &cobra.Command{
	Use:   "localize",
	Short: "Find out where you are with a 360° scan",
	Long: `Turn slowly on the spot while sightline samples the view at evenly
spaced headings, then compares the samples with the reference views of
every known location.

Reference views are added with "sightline location capture".`,
	Args: cobra.NoArgs,
	RunE: runLocalize,
}

func init() {
	rootCmd.AddCommand(localizeCmd)
}

func runLocalize(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		loc, err := rt.Localizer()
		if err != nil {
			return err
		}

		scanCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		cmd.Println("Turn slowly in a full circle.")
		result, err := loc.Scan(scanCtx, rt.Headings(scanCtx))
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}

		if result.IsUnknown() {
			cmd.Printf("Location unknown (%d samples)\n", result.Samples)
		} else {
			cmd.Printf("Location: %s\n", result.NodeID)
			cmd.Printf("  Confidence: %.2f\n", result.Confidence)
			cmd.Printf("  Votes: %d of %d samples\n", result.Votes, result.Samples)
		}
		for _, v := range result.Tally {
			cmd.Printf("  %-20s %3d votes  avg %.2f\n", v.NodeID, v.Votes, v.AvgSimilarity)
		}
		return nil
	})
}
