package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Manage recorded paths",
	RunE:  runPathList,
}

var pathListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded paths",
	Args:  cobra.NoArgs,
	RunE:  runPathList,
}

var pathShowCmd = &cobra.Command{
	Use:   "show <path-id>",
	Short: "Show the waypoints of a path",
	Args:  cobra.ExactArgs(1),
	RunE:  runPathShow,
}

var pathDeleteCmd = &cobra.Command{
	Use:   "delete <path-id>",
	Short: "Delete a recorded path",
	Args:  cobra.ExactArgs(1),
	RunE:  runPathDelete,
}

func init() {
	pathCmd.AddCommand(pathListCmd)
	pathCmd.AddCommand(pathShowCmd)
	pathCmd.AddCommand(pathDeleteCmd)
	rootCmd.AddCommand(pathCmd)
}

func runPathList(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		summaries, err := rt.PathService().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list paths: %w", err)
		}
		if len(summaries) == 0 {
			cmd.Println("No paths recorded.")
			return nil
		}

		for _, s := range summaries {
			cmd.Printf("%s  %s → %s  %d waypoints  %.1fm  %s\n",
				s.ID, s.StartNodeID, s.EndNodeID, s.WaypointCount,
				s.EstimatedDistance, s.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	})
}

func runPathShow(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		path, err := rt.PathService().Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get path: %w", err)
		}
		printPath(cmd, path)
		return nil
	})
}

func runPathDelete(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		if err := rt.PathService().Delete(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete path: %w", err)
		}
		cmd.Printf("Deleted path %s\n", args[0])
		return nil
	})
}

// printPath writes a path header and one line per waypoint.
func printPath(cmd *cobra.Command, path *domain.NavigationPath) {
	cmd.Printf("%s → %s\n", path.StartNodeID, path.EndNodeID)
	cmd.Printf("  Waypoints: %d\n", len(path.Waypoints))
	cmd.Printf("  Distance: %.1fm (%d steps)\n", path.EstimatedDistance, path.EstimatedSteps)
	cmd.Printf("  Dimensions: %d\n", path.Dimensions)
	for _, w := range path.Waypoints {
		line := fmt.Sprintf("  %3d  %5.1f°  %-16s", w.SequenceNumber, w.Heading, w.TurnType)
		if w.IsDecisionPoint {
			line += "  decision"
		}
		if w.LandmarkDescription != "" {
			line += "  " + w.LandmarkDescription
		}
		cmd.Println(line)
	}
}
