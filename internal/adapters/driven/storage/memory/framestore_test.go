package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

func TestFrameStore(t *testing.T) {
	ctx := context.Background()
	s := NewFrameStore()

	ref := s.Put([]byte("jpeg"))
	assert.Equal(t, 1, s.Len())

	img, err := s.Load(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), img)

	require.NoError(t, s.Delete(ctx, ref))
	require.NoError(t, s.Delete(ctx, ref))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.Deleted())

	_, err = s.Load(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
