package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

var defaultCompaction = CompactionOptions{SimilarityThreshold: 0.95, HeadingThreshold: 10}

func wp(seq int, heading float64, emb ...float32) domain.Waypoint {
	return domain.Waypoint{
		SequenceNumber:       seq,
		Embedding:            emb,
		Heading:              heading,
		TurnType:             domain.TurnStraight,
		DistanceFromPrevious: 1,
	}
}

func TestCompactWaypoints_Empty(t *testing.T) {
	assert.Nil(t, CompactWaypoints(nil, defaultCompaction))
}

func TestCompactWaypoints_DropsRedundant(t *testing.T) {
	in := []domain.Waypoint{
		wp(0, 0, 1, 0),
		wp(1, 2, 1, 0.01),
		wp(2, 4, 1, 0.02),
		wp(3, 5, 0, 1),
	}

	out := CompactWaypoints(in, defaultCompaction)

	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].SequenceNumber)
	assert.Equal(t, 1, out[1].SequenceNumber)
	assert.Equal(t, float32(0), out[1].Embedding[0])
	// Distances of the two dropped waypoints carry into the survivor.
	assert.Equal(t, 3.0, out[1].DistanceFromPrevious)
	// Input untouched.
	assert.Equal(t, 3, in[3].SequenceNumber)
}

func TestCompactWaypoints_KeepsHeadingChange(t *testing.T) {
	in := []domain.Waypoint{
		wp(0, 0, 1, 0),
		wp(1, 10, 1, 0),
		wp(2, 355, 1, 0),
	}

	out := CompactWaypoints(in, defaultCompaction)

	// 10° is not strictly below the threshold; 355 vs 10 is 15° away.
	assert.Len(t, out, 3)
}

func TestCompactWaypoints_ComparesAgainstLastKept(t *testing.T) {
	// Each step drifts 6°, so consecutive pairs look redundant but the
	// drift from the last kept waypoint eventually crosses 10°.
	in := []domain.Waypoint{
		wp(0, 0, 1, 0),
		wp(1, 6, 1, 0),
		wp(2, 12, 1, 0),
		wp(3, 18, 1, 0),
	}

	out := CompactWaypoints(in, defaultCompaction)

	require.Len(t, out, 3)
	assert.Equal(t, 12.0, out[1].Heading)
	assert.Equal(t, 2.0, out[1].DistanceFromPrevious)
	assert.Equal(t, 18.0, out[2].Heading)
}

func TestCompactWaypoints_KeepsDestination(t *testing.T) {
	in := []domain.Waypoint{
		wp(0, 0, 1, 0),
		wp(1, 1, 1, 0.01),
		wp(2, 2, 1, 0.02),
		wp(3, 3, 1, 0.01),
		wp(4, 4, 1, 0.02),
	}

	out := CompactWaypoints(in, defaultCompaction)

	require.Len(t, out, 2)
	assert.Equal(t, 0.0, out[0].Heading)
	assert.Equal(t, 4.0, out[1].Heading)
	assert.Equal(t, 1, out[1].SequenceNumber)

	total := 0.0
	for _, w := range out {
		total += w.DistanceFromPrevious
	}
	assert.Equal(t, 5.0, total, "no distance is lost")
	assert.Equal(t, out, CompactWaypoints(out, defaultCompaction))
}

func TestCompactWaypoints_SingleWaypoint(t *testing.T) {
	out := CompactWaypoints([]domain.Waypoint{wp(3, 0, 1, 0)}, defaultCompaction)

	require.Len(t, out, 1)
	assert.Equal(t, 0, out[0].SequenceNumber)
}

func TestCompactWaypoints_NeverDropsDecisionPoint(t *testing.T) {
	turn := wp(1, 2, 1, 0)
	turn.IsDecisionPoint = true
	turn.TurnType = domain.TurnRight

	out := CompactWaypoints([]domain.Waypoint{wp(0, 0, 1, 0), turn}, defaultCompaction)

	require.Len(t, out, 2)
	assert.True(t, out[1].IsDecisionPoint)
}

func TestCompactWaypoints_DimensionMismatchKeeps(t *testing.T) {
	out := CompactWaypoints([]domain.Waypoint{
		wp(0, 0, 1, 0),
		wp(1, 0, 1, 0, 0),
	}, defaultCompaction)

	assert.Len(t, out, 2)
}

func TestCompactWaypoints_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := 1 + r.Intn(30)
		in := make([]domain.Waypoint, n)
		heading := r.Float64() * 360
		base := []float32{1, 0, 0}
		for i := range in {
			heading = domain.Normalize(heading + (r.Float64()-0.5)*30)
			if r.Intn(4) == 0 {
				base = []float32{r.Float32(), r.Float32(), r.Float32()}
			}
			emb := []float32{
				base[0] + (r.Float32()-0.5)*0.05,
				base[1] + (r.Float32()-0.5)*0.05,
				base[2] + (r.Float32()-0.5)*0.05,
			}
			in[i] = wp(i, heading, emb...)
			in[i].IsDecisionPoint = r.Intn(5) == 0
		}

		once := CompactWaypoints(in, defaultCompaction)
		twice := CompactWaypoints(once, defaultCompaction)

		require.NotEmpty(t, once)
		assert.Equal(t, once, twice, "compaction must be idempotent")
		assert.Equal(t, in[0].Embedding, once[0].Embedding, "first waypoint always kept")
		assert.Equal(t, in[n-1].Embedding, once[len(once)-1].Embedding, "last waypoint always kept")

		var inDist, outDist float64
		for _, w := range in {
			inDist += w.DistanceFromPrevious
		}
		for _, w := range once {
			outDist += w.DistanceFromPrevious
		}
		assert.InDelta(t, inDist, outDist, 1e-9)

		decisions := 0
		for _, w := range in {
			if w.IsDecisionPoint {
				decisions++
			}
		}
		keptDecisions := 0
		for i, w := range once {
			assert.Equal(t, i, w.SequenceNumber)
			if w.IsDecisionPoint {
				keptDecisions++
			}
		}
		// The first waypoint may itself be a decision point; it is kept either way.
		assert.Equal(t, decisions, keptDecisions)
	}
}
