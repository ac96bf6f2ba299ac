package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

func TestLocationStore(t *testing.T) {
	ctx := context.Background()
	s := NewLocationStore()

	require.NoError(t, s.SaveLocation(ctx, domain.Location{NodeID: "library", Name: "Library"}))
	require.NoError(t, s.SaveLocation(ctx, domain.Location{NodeID: "cafe", Name: "Cafe"}))
	assert.ErrorIs(t, s.SaveLocation(ctx, domain.Location{}), domain.ErrInvalidInput)

	require.NoError(t, s.AddEmbedding(ctx, "library", []float32{1, 0}))
	require.NoError(t, s.AddEmbedding(ctx, "library", []float32{0.9, 0.1}))
	assert.ErrorIs(t, s.AddEmbedding(ctx, "nowhere", []float32{1}), domain.ErrNotFound)

	locs, err := s.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "cafe", locs[0].NodeID)

	embs, err := s.LoadLocationEmbeddings(ctx, "library")
	require.NoError(t, err)
	require.Len(t, embs, 2)
	assert.Equal(t, "library", embs[1].NodeID)
	assert.Equal(t, []float32{0.9, 0.1}, embs[1].Embedding)

	embs, err = s.LoadLocationEmbeddings(ctx, "cafe")
	require.NoError(t, err)
	assert.Empty(t, embs)
}
