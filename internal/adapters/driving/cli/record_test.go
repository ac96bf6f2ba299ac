package cli

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

func recordRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := testRuntime(t)
	require.NoError(t, rt.Settings.Set("recording.interval", "10ms"))
	require.NoError(t, rt.Settings.Set("recording.remove_people", "false"))
	return rt
}

func TestRecordCmd_Use(t *testing.T) {
	assert.Equal(t, "record <start-node> <end-node>", recordCmd.Use)
	assert.Contains(t, recordCmd.Long, "Press Enter")
}

func TestRecord_SavesPath(t *testing.T) {
	rt := recordRuntime(t)
	useRuntime(t, rt)

	out, err := execute(t, &delayedLine{d: 80 * time.Millisecond}, "record", "entrance", "library")

	require.NoError(t, err)
	assert.Contains(t, out, "Recording entrance → library")
	assert.Contains(t, out, domain.InstructionRecordStarted)
	assert.Contains(t, out, "Saved path")

	summaries, err := rt.Paths.List(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "entrance", summaries[0].StartNodeID)
	assert.Equal(t, "library", summaries[0].EndNodeID)
	assert.GreaterOrEqual(t, summaries[0].WaypointCount, 1)

	cam := rt.camera.(*fakeCamera)
	assert.Zero(t, cam.Len(), "frames are released after embedding")
}

func TestRecord_AbortOnCancel(t *testing.T) {
	rt := recordRuntime(t)
	useRuntime(t, rt)

	stdin, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	out, err := executeContext(t, ctx, stdin, "record", "entrance", "library")

	require.NoError(t, err)
	assert.Contains(t, out, "Recording aborted.")

	summaries, err := rt.Paths.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Zero(t, rt.camera.(*fakeCamera).Len())
}

func TestRecord_RequiresNodes(t *testing.T) {
	useRuntime(t, recordRuntime(t))

	_, err := execute(t, nil, "record", "entrance")

	assert.Error(t, err)
}

func TestWaitForEnter(t *testing.T) {
	t.Run("line", func(t *testing.T) {
		assert.True(t, waitForEnter(context.Background(), &delayedLine{d: time.Millisecond}))
	})

	t.Run("cancelled", func(t *testing.T) {
		stdin, w := io.Pipe()
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.False(t, waitForEnter(ctx, stdin))
	})
}
