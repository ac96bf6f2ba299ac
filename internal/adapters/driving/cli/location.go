package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
)

type locationOptions struct {
	samples int
}

var locationOpts = locationOptions{samples: 1}

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Manage known locations",
	Long: `Locations are the named places paths start and end at. Each one
needs reference views before "sightline localize" can recognise it.`,
	RunE: runLocationList,
}

var locationAddCmd = &cobra.Command{
	Use:   "add <node-id> [name]",
	Short: "Add or rename a location",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLocationAdd,
}

var locationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known locations",
	Args:  cobra.NoArgs,
	RunE:  runLocationList,
}

var locationCaptureCmd = &cobra.Command{
	Use:   "capture <node-id>",
	Short: "Store reference views of a location from the camera",
	Long: `Embed the current camera frame and store it as a reference view.
Run it a few times while facing different directions.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocationCapture,
}

func init() {
	locationCaptureCmd.Flags().IntVarP(&locationOpts.samples, "samples", "n", 1, "number of frames to capture")
	locationCmd.AddCommand(locationAddCmd)
	locationCmd.AddCommand(locationListCmd)
	locationCmd.AddCommand(locationCaptureCmd)
	rootCmd.AddCommand(locationCmd)
}

func runLocationAdd(cmd *cobra.Command, args []string) error {
	loc := domain.Location{NodeID: args[0], Name: args[0]}
	if len(args) == 2 {
		loc.Name = args[1]
	}
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		if err := rt.Locations.SaveLocation(ctx, loc); err != nil {
			return fmt.Errorf("failed to save location: %w", err)
		}
		cmd.Printf("Saved location %s (%s)\n", loc.NodeID, loc.Name)
		return nil
	})
}

func runLocationList(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		locs, err := rt.Locations.ListLocations(ctx)
		if err != nil {
			return fmt.Errorf("failed to list locations: %w", err)
		}
		if len(locs) == 0 {
			cmd.Println("No locations.")
			return nil
		}
		for _, loc := range locs {
			embs, err := rt.Locations.LoadLocationEmbeddings(ctx, loc.NodeID)
			if err != nil {
				return fmt.Errorf("failed to load views for %s: %w", loc.NodeID, err)
			}
			cmd.Printf("%-20s %-30s %d views\n", loc.NodeID, loc.Name, len(embs))
		}
		return nil
	})
}

func runLocationCapture(cmd *cobra.Command, args []string) error {
	if locationOpts.samples < 1 {
		return fmt.Errorf("%w: samples must be at least 1", domain.ErrInvalidInput)
	}
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		cam, err := rt.Camera()
		if err != nil {
			return err
		}
		embedder := rt.Gateway()

		stored := 0
		for i := 0; i < locationOpts.samples; i++ {
			emb, err := embedCurrentFrame(ctx, cam, embedder)
			if err != nil {
				return fmt.Errorf("capture %d: %w", i+1, err)
			}
			if err := rt.Locations.AddEmbedding(ctx, args[0], emb); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("unknown location %s, add it first: %w", args[0], err)
				}
				return fmt.Errorf("failed to store view: %w", err)
			}
			stored++
		}
		cmd.Printf("Stored %d views for %s\n", stored, args[0])
		return nil
	})
}

// embedCurrentFrame captures, embeds and releases one frame.
func embedCurrentFrame(ctx context.Context, cam frameSource, embedder driven.ImageEmbedder) ([]float32, error) {
	ref, err := cam.Capture(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cam.Delete(context.WithoutCancel(ctx), ref) }()

	img, err := cam.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return embedder.Embed(ctx, img, driven.EmbedStandard)
}
