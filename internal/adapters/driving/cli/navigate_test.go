package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

func navigateRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := testRuntime(t)
	require.NoError(t, rt.Settings.Set("navigation.interval", "5ms"))
	seedPath(t, rt, "p-1", "entrance", "library", []float32{1, 0, 0})
	return rt
}

func TestNavigateCmd_Use(t *testing.T) {
	assert.Equal(t, "navigate [start-node end-node]", navigateCmd.Use)
	assert.Contains(t, navigateCmd.Long, "Dashboard keys")
}

func TestNavigate_ReachesDestination(t *testing.T) {
	useRuntime(t, navigateRuntime(t))

	out, err := execute(t, nil, "navigate", "entrance", "library")

	require.NoError(t, err)
	assert.Contains(t, out, domain.InstructionFaceForward)
	assert.Contains(t, out, "Turn right")
	assert.Contains(t, out, domain.InstructionArrived)
	assert.Contains(t, out, "Navigation ended: destination_reached (waypoint 3 of 3)")
}

func TestNavigate_ByPathID(t *testing.T) {
	useRuntime(t, navigateRuntime(t))

	out, err := execute(t, nil, "navigate", "--path", "p-1")

	require.NoError(t, err)
	assert.Contains(t, out, "destination_reached")
}

func TestNavigate_WithoutCompass(t *testing.T) {
	rt := navigateRuntime(t)
	rt.compass = &fakeCompass{err: domain.ErrSensorUnavailable}
	useRuntime(t, rt)

	out, err := execute(t, nil, "navigate", "entrance", "library")

	require.NoError(t, err)
	assert.Contains(t, out, "No compass reading, starting without orientation.")
	assert.Contains(t, out, "destination_reached")
}

func TestNavigate_NoRoute(t *testing.T) {
	useRuntime(t, navigateRuntime(t))

	_, err := execute(t, nil, "navigate", "library", "entrance")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "no recorded path from library to entrance")
}

func TestNavigate_Args(t *testing.T) {
	useRuntime(t, navigateRuntime(t))

	_, err := execute(t, nil, "navigate", "entrance")
	assert.Error(t, err)

	_, err = execute(t, nil, "navigate", "--path", "p-1", "entrance", "library")
	assert.Error(t, err)
}

func TestNavigate_UnknownPathID(t *testing.T) {
	useRuntime(t, navigateRuntime(t))

	_, err := execute(t, nil, "navigate", "--path", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
