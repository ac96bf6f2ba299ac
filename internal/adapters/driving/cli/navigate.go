package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sightline/internal/adapters/driving/tui"
	"github.com/custodia-labs/sightline/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driving"
)

// compassWait is how long navigate waits for a first heading before
// starting without orientation.
var compassWait = 2 * time.Second

type navigateOptions struct {
	pathID       string
	plain        bool
	highContrast bool
}

var navigateOpts navigateOptions

var navigateCmd = &cobra.Command{
	Use:   "navigate [start-node end-node]",
	Short: "Follow a recorded route",
	Long: `Follow the newest recorded path between two nodes, or the path given
with --path. Instructions are spoken to the terminal; on an interactive
terminal a live dashboard shows progress unless --plain is set.

Dashboard keys:
  s, esc    - Stop
  r, space  - Resume after going off track
  enter     - Repeat the last instruction
  ?         - Toggle help
  q         - Quit`,
	Args: func(cmd *cobra.Command, args []string) error {
		if navigateOpts.pathID != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runNavigate,
}

func init() {
	navigateCmd.Flags().StringVar(&navigateOpts.pathID, "path", "", "ID of the path to follow")
	navigateCmd.Flags().BoolVar(&navigateOpts.plain, "plain", false, "print instructions without the dashboard")
	navigateCmd.Flags().BoolVar(&navigateOpts.highContrast, "high-contrast", false, "use the high contrast dashboard theme")
	rootCmd.AddCommand(navigateCmd)
}

func runNavigate(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		path, err := resolvePath(ctx, rt, args)
		if err != nil {
			return err
		}

		navCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		headings := waitForHeading(navCtx, rt, compassWait)
		if headings == nil {
			cmd.Println("No compass reading, starting without orientation.")
		}

		var snap domain.NavigationSnapshot
		if useDashboard(cmd) {
			snap, err = navigateWithDashboard(navCtx, rt, path, headings)
		} else {
			snap, err = navigatePlain(navCtx, rt, path, headings)
		}
		if err != nil {
			return fmt.Errorf("navigate: %w", err)
		}

		cmd.Printf("Navigation ended: %s (waypoint %d of %d)\n",
			snap.State, snap.CurrentWaypointIndex+1, snap.WaypointCount)
		return nil
	})
}

func resolvePath(ctx context.Context, rt *Runtime, args []string) (*domain.NavigationPath, error) {
	paths := rt.PathService()
	if navigateOpts.pathID != "" {
		return paths.Get(ctx, navigateOpts.pathID)
	}
	path, err := paths.FindRoute(ctx, args[0], args[1])
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no recorded path from %s to %s: %w", args[0], args[1], err)
	}
	return path, err
}

// waitForHeading returns the heading feed once it has a reading, or nil
// if none arrives within wait.
func waitForHeading(ctx context.Context, rt *Runtime, wait time.Duration) driving.HeadingSource {
	feed := rt.Headings(ctx)
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	for {
		if _, ok := feed.Heading(); ok {
			return feed
		}
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			return nil
		case <-poll.C:
		}
	}
}

func useDashboard(cmd *cobra.Command) bool {
	if navigateOpts.plain || cmd.OutOrStdout() != os.Stdout {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func navigatePlain(ctx context.Context, rt *Runtime, path *domain.NavigationPath, headings driving.HeadingSource) (domain.NavigationSnapshot, error) {
	nav, err := rt.Navigator(rt.Guidance())
	if err != nil {
		return domain.NavigationSnapshot{}, err
	}
	return nav.Navigate(ctx, path, headings)
}

func navigateWithDashboard(ctx context.Context, rt *Runtime, path *domain.NavigationPath, headings driving.HeadingSource) (domain.NavigationSnapshot, error) {
	speech, err := rt.Speech()
	if err != nil {
		return domain.NavigationSnapshot{}, err
	}
	sink := tui.NewSink(speech)
	nav, err := rt.Navigator(sink)
	if err != nil {
		return domain.NavigationSnapshot{}, err
	}

	theme := styles.DefaultTheme()
	if navigateOpts.highContrast {
		theme = styles.HighContrastTheme()
	}

	app, err := tui.NewApp(&tui.Ports{
		Navigation: nav,
		Path:       path,
		Headings:   headings,
	}, sink, theme)
	if err != nil {
		return domain.NavigationSnapshot{}, err
	}
	return app.Run(ctx)
}
