package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

func TestPathCmd_Use(t *testing.T) {
	assert.Equal(t, "path", pathCmd.Use)
	assert.Equal(t, "show <path-id>", pathShowCmd.Use)
	assert.Equal(t, "delete <path-id>", pathDeleteCmd.Use)
}

func TestPathList_Empty(t *testing.T) {
	useRuntime(t, testRuntime(t))

	out, err := execute(t, nil, "path", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No paths recorded.")
}

func TestPathList(t *testing.T) {
	rt := testRuntime(t)
	seedPath(t, rt, "p-1", "entrance", "library", []float32{1, 0, 0})
	useRuntime(t, rt)

	out, err := execute(t, nil, "path")

	require.NoError(t, err)
	assert.Contains(t, out, "p-1  entrance → library  3 waypoints  12.6m  2026-03-01 09:30")
}

func TestPathShow(t *testing.T) {
	rt := testRuntime(t)
	seedPath(t, rt, "p-1", "entrance", "library", []float32{1, 0, 0})
	useRuntime(t, rt)

	out, err := execute(t, nil, "path", "show", "p-1")

	require.NoError(t, err)
	assert.Contains(t, out, "entrance → library")
	assert.Contains(t, out, "Waypoints: 3")
	assert.Contains(t, out, "Distance: 12.6m (18 steps)")
	assert.Contains(t, out, "decision")
	assert.Contains(t, out, "the lifts")
}

func TestPathShow_NotFound(t *testing.T) {
	useRuntime(t, testRuntime(t))

	_, err := execute(t, nil, "path", "show", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPathDelete(t *testing.T) {
	rt := testRuntime(t)
	seedPath(t, rt, "p-1", "entrance", "library", []float32{1, 0, 0})
	useRuntime(t, rt)

	out, err := execute(t, nil, "path", "delete", "p-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted path p-1")
	_, err = rt.Paths.Get(context.Background(), "p-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPathShow_RequiresID(t *testing.T) {
	useRuntime(t, testRuntime(t))

	_, err := execute(t, nil, "path", "show")

	assert.Error(t, err)
}
