package services

import (
	"errors"
	"math"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/logger"
	"github.com/custodia-labs/sightline/internal/similarity"
)

// CompactionOptions sets the redundancy thresholds for CompactWaypoints.
type CompactionOptions struct {
	// SimilarityThreshold: a waypoint must score strictly above this
	// against the previous kept waypoint to be dropped.
	SimilarityThreshold float64
	// HeadingThreshold: and its heading must differ by strictly less than this.
	HeadingThreshold float64
}

// CompactWaypoints removes waypoints that look and face the same way as
// the previous kept waypoint. The first and last waypoints and every
// decision point survive, so the destination view is never lost. A dropped
// waypoint's distance is carried into the next kept one. Survivors are
// renumbered 0..N-1. The input slice is not modified.
func CompactWaypoints(waypoints []domain.Waypoint, opts CompactionOptions) []domain.Waypoint {
	if len(waypoints) == 0 {
		return nil
	}

	kept := make([]domain.Waypoint, 0, len(waypoints))
	kept = append(kept, waypoints[0])
	carried := 0.0

	last := len(waypoints) - 1
	for i := 1; i <= last; i++ {
		w := waypoints[i]
		prev := &kept[len(kept)-1]

		if i < last && !w.IsDecisionPoint && redundant(prev, &w, opts) {
			logger.Debug("compaction: dropping waypoint %d", w.SequenceNumber)
			carried += w.DistanceFromPrevious
			continue
		}

		w.DistanceFromPrevious += carried
		carried = 0
		kept = append(kept, w)
	}

	for i := range kept {
		kept[i].SequenceNumber = i
	}
	return kept
}

func redundant(prev, w *domain.Waypoint, opts CompactionOptions) bool {
	sim, err := similarity.Cosine(prev.Embedding, w.Embedding)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			logger.Warn("compaction: keeping waypoint %d: %v", w.SequenceNumber, err)
		}
		return false
	}
	if sim <= opts.SimilarityThreshold {
		return false
	}
	return math.Abs(domain.SignedDelta(w.Heading, prev.Heading)) < opts.HeadingThreshold
}
