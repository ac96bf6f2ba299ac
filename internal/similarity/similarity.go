// Package similarity scores embeddings against each other.
//
// Dot products run on vecgo's SIMD kernels. Scores are cosine similarity
// in [-1, 1]; comparing a zero vector yields 0 rather than an error.
package similarity

import (
	"math"

	"github.com/hupe1980/vecgo/distance"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// Cosine returns dot(a,b) / (‖a‖·‖b‖).
// Vectors of different length produce a *domain.DimensionMismatchError.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &domain.DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}
	if len(a) == 0 {
		return 0, nil
	}

	na := float64(distance.Dot(a, a))
	nb := float64(distance.Dot(b, b))
	if na == 0 || nb == 0 {
		return 0, nil
	}

	sim := float64(distance.Dot(a, b)) / (math.Sqrt(na) * math.Sqrt(nb))
	// float32 accumulation can overshoot the unit interval slightly.
	return math.Max(-1, math.Min(1, sim)), nil
}

// Match is the best-scoring candidate from BestMatch.
type Match struct {
	Index      int
	Similarity float64
}

// BestMatch scores query against every candidate and returns the highest.
// Candidates with a different dimension are skipped and counted in skipped.
// ok is false when no candidate could be scored.
func BestMatch(query []float32, candidates [][]float32) (best Match, skipped int, ok bool) {
	best = Match{Index: -1, Similarity: math.Inf(-1)}
	for i, c := range candidates {
		sim, err := Cosine(query, c)
		if err != nil {
			skipped++
			continue
		}
		if sim > best.Similarity {
			best = Match{Index: i, Similarity: sim}
		}
	}
	if best.Index < 0 {
		return Match{Index: -1}, skipped, false
	}
	return best, skipped, true
}
