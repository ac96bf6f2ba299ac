package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// saveRetries is how many times a failed path save is retried.
const saveRetries = 2

var recordCmd = &cobra.Command{
	Use:   "record <start-node> <end-node>",
	Short: "Record a route between two places",
	Long: `Walk the route from start-node to end-node while sightline captures
frames and headings. Press Enter when you arrive; Ctrl+C aborts and
discards the recording.

Frames are embedded and compacted into waypoints after the walk so
recording never waits on the embedding gateway.`,
	Args: cobra.ExactArgs(2),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
		rec, err := rt.Recorder()
		if err != nil {
			return err
		}
		if err := rec.Start(args[0], args[1]); err != nil {
			return fmt.Errorf("start recording: %w", err)
		}

		walkCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		headings := rt.Headings(walkCtx)
		runErr := make(chan error, 1)
		go func() { runErr <- rec.Run(walkCtx, headings) }()

		cmd.Printf("Recording %s → %s. Press Enter when you arrive, Ctrl+C to abort.\n", args[0], args[1])

		if !waitForEnter(walkCtx, cmd.InOrStdin()) {
			cancel()
			<-runErr
			if err := rec.Abort(context.WithoutCancel(ctx)); err != nil {
				return fmt.Errorf("abort recording: %w", err)
			}
			cmd.Println("Recording aborted.")
			return nil
		}

		if err := rec.ArriveAtDestination(); err != nil {
			return fmt.Errorf("stop recording: %w", err)
		}
		if err := <-runErr; err != nil {
			return fmt.Errorf("recording: %w", err)
		}

		cmd.Printf("Processing %d captures...\n", len(rec.Captures()))
		path, err := rec.Finish(ctx)
		for i := 0; i < saveRetries && errors.Is(err, domain.ErrStorage); i++ {
			cmd.Println("Save failed, retrying...")
			time.Sleep(time.Second)
			path, err = rec.RetrySave(ctx)
		}
		if err != nil {
			return fmt.Errorf("finish recording: %w", err)
		}

		cmd.Printf("Saved path %s\n", path.ID)
		printPath(cmd, path)
		return nil
	})
}

// waitForEnter blocks until a line is read from r or ctx is done.
// It returns false if ctx ended first.
func waitForEnter(ctx context.Context, r io.Reader) bool {
	line := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(r).ReadString('\n')
		close(line)
	}()
	select {
	case <-line:
		return ctx.Err() == nil
	case <-ctx.Done():
		return false
	}
}
