package services

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/logger"
	"github.com/custodia-labs/sightline/internal/similarity"
)

// Voter picks a location from scan samples by majority vote.
//
// Each sample votes for the node owning its best-matching reference
// embedding, but only if that match beats VoteThreshold. The node with the
// most votes wins; ties go to the higher average similarity, then to the
// lower node ID. The winner is accepted only with at least MinVotes votes
// and an average similarity of at least MinConfidence.
type Voter struct {
	settings domain.ScanSettings
}

// NewVoter creates a voter.
func NewVoter(settings domain.ScanSettings) *Voter {
	return &Voter{settings: settings}
}

// Vote tallies samples against references.
// Returns domain.ErrInsufficientData when there are no samples.
func (v *Voter) Vote(samples []domain.ScanSample, refs []domain.LocationEmbedding) (domain.LocalizationResult, error) {
	if len(samples) == 0 {
		return domain.LocalizationResult{}, fmt.Errorf("%w: no scan samples", domain.ErrInsufficientData)
	}

	candidates := make([][]float32, len(refs))
	for i := range refs {
		candidates[i] = refs[i].Embedding
	}

	votes := make(map[string][]float64)
	skipped := 0
	for i := range samples {
		best, n, ok := similarity.BestMatch(samples[i].Embedding, candidates)
		skipped += n
		if !ok || best.Similarity <= v.settings.VoteThreshold {
			continue
		}
		node := refs[best.Index].NodeID
		votes[node] = append(votes[node], best.Similarity)
	}
	if skipped > 0 {
		logger.Warn("voter: skipped %d comparisons with mismatched dimensions", skipped)
	}

	tally := make([]domain.LocationVote, 0, len(votes))
	for node, sims := range votes {
		tally = append(tally, domain.LocationVote{
			NodeID:        node,
			Votes:         len(sims),
			AvgSimilarity: stat.Mean(sims, nil),
		})
	}
	sort.Slice(tally, func(i, j int) bool {
		a, b := tally[i], tally[j]
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		if a.AvgSimilarity != b.AvgSimilarity {
			return a.AvgSimilarity > b.AvgSimilarity
		}
		return a.NodeID < b.NodeID
	})

	result := domain.LocalizationResult{
		NodeID:  domain.UnknownLocation,
		Samples: len(samples),
		Tally:   tally,
	}
	if len(tally) == 0 {
		return result, nil
	}

	top := tally[0]
	result.Votes = top.Votes
	if top.Votes >= v.settings.MinVotes && top.AvgSimilarity >= v.settings.MinConfidence {
		result.NodeID = top.NodeID
		result.Confidence = top.AvgSimilarity
	}

	logger.Debug("voter: top=%s votes=%d avg=%.3f accepted=%t",
		top.NodeID, top.Votes, top.AvgSimilarity, !result.IsUnknown())
	return result, nil
}
