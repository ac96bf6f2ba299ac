package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

func navPath() *domain.NavigationPath {
	return &domain.NavigationPath{
		ID:          "route",
		StartNodeID: "entrance",
		EndNodeID:   "library",
		Waypoints: []domain.Waypoint{
			{SequenceNumber: 0, Embedding: []float32{1, 0, 0}, Heading: 90, TurnType: domain.TurnStraight},
			{SequenceNumber: 1, Embedding: []float32{0, 1, 0}, Heading: 180, TurnType: domain.TurnRight, IsDecisionPoint: true},
			{SequenceNumber: 2, Embedding: []float32{0, 0, 1}, Heading: 180, TurnType: domain.TurnStraight, LandmarkDescription: "the reading room"},
		},
		Dimensions: 3,
	}
}

func newNavSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(navPath(), domain.DefaultAppSettings().Navigation)
	require.NoError(t, err)
	return s
}

func startedSession(t *testing.T) *Session {
	t.Helper()
	s := newNavSession(t)
	_, err := s.Start(0, false)
	require.NoError(t, err)
	return s
}

var t0 = time.Unix(1700000000, 0)

func TestNewSession_RejectsInvalidPath(t *testing.T) {
	_, err := NewSession(nil, domain.DefaultAppSettings().Navigation)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	p := navPath()
	p.Waypoints = nil
	_, err = NewSession(p, domain.DefaultAppSettings().Navigation)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestSession_StartWithoutCompass(t *testing.T) {
	s := newNavSession(t)

	text, err := s.Start(0, false)

	require.NoError(t, err)
	assert.Equal(t, domain.InstructionFaceForward, text)
	assert.Equal(t, domain.NavNavigating, s.State())

	_, err = s.Start(0, false)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSession_Orienting(t *testing.T) {
	s := newNavSession(t)

	text, err := s.Start(0, true)
	require.NoError(t, err)
	assert.Equal(t, domain.NavOrienting, s.State())
	assert.Equal(t, "Turn right", text)

	// Same instruction is not repeated.
	assert.Equal(t, "", s.HandleHeading(30))

	// Overshoot: target is now anticlockwise.
	assert.Equal(t, "Turn left", s.HandleHeading(150))

	// Embeddings are ignored until facing the right way.
	text, err = s.HandleEmbedding([]float32{1, 0, 0}, t0)
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Equal(t, 0, s.Snapshot().CurrentWaypointIndex)

	assert.Equal(t, domain.InstructionFaceForward, s.HandleHeading(95))
	assert.Equal(t, domain.NavNavigating, s.State())

	// Headings no longer matter once navigating.
	assert.Equal(t, "", s.HandleHeading(270))
}

func TestSession_StartAlreadyFacing(t *testing.T) {
	s := newNavSession(t)

	text, err := s.Start(85, true)

	require.NoError(t, err)
	assert.Equal(t, domain.InstructionFaceForward, text)
	assert.Equal(t, domain.NavNavigating, s.State())
}

func TestSession_ReachWaypointsToDestination(t *testing.T) {
	s := startedSession(t)

	assert.Equal(t, "Turn right", s.HandleSimilarity(0.85, t0))
	assert.Equal(t, 1, s.Snapshot().CurrentWaypointIndex)
	assert.Equal(t, domain.NavNavigating, s.State())

	assert.Equal(t, "Continue straight towards the reading room", s.HandleSimilarity(0.9, t0))
	assert.Equal(t, 2, s.Snapshot().CurrentWaypointIndex)

	assert.Equal(t, domain.InstructionArrived, s.HandleSimilarity(0.81, t0))
	assert.Equal(t, domain.NavDestinationReached, s.State())
	assert.Equal(t, 1.0, s.Snapshot().Progress())

	// Terminal: further input is ignored.
	assert.Equal(t, "", s.HandleSimilarity(0.1, t0))
	assert.Equal(t, "", s.Stop())
	assert.Equal(t, domain.NavDestinationReached, s.State())
}

func TestSession_CompactedStraightWalk(t *testing.T) {
	walk := []domain.Waypoint{
		wp(0, 0, 1, 0, 0),
		wp(1, 1, 1, 0.01, 0),
		wp(2, 2, 1, 0.02, 0),
		wp(3, 3, 1, 0.01, 0.01),
		wp(4, 4, 1, 0, 0.02),
	}
	path := &domain.NavigationPath{
		ID:          "straight",
		StartNodeID: "entrance",
		EndNodeID:   "library",
		Waypoints:   CompactWaypoints(walk, defaultCompaction),
		Dimensions:  3,
	}
	require.Len(t, path.Waypoints, 2)

	s, err := NewSession(path, domain.DefaultAppSettings().Navigation)
	require.NoError(t, err)
	_, err = s.Start(0, false)
	require.NoError(t, err)

	// Matching the view at the start only passes the first waypoint.
	text, err := s.HandleEmbedding(walk[0].Embedding, t0)
	require.NoError(t, err)
	assert.NotEqual(t, domain.InstructionArrived, text)
	assert.Equal(t, domain.NavNavigating, s.State())
	assert.Equal(t, 1, s.Snapshot().CurrentWaypointIndex)

	text, err = s.HandleEmbedding(walk[4].Embedding, t0)
	require.NoError(t, err)
	assert.Equal(t, domain.InstructionArrived, text)
	assert.Equal(t, domain.NavDestinationReached, s.State())
}

func TestSession_ReachedThresholdIsStrict(t *testing.T) {
	s := startedSession(t)

	assert.Equal(t, "", s.HandleSimilarity(0.8, t0))
	assert.Equal(t, 0, s.Snapshot().CurrentWaypointIndex)
	assert.Equal(t, domain.NavApproaching, s.State())
}

func TestSession_ApproachingAndBack(t *testing.T) {
	s := startedSession(t)

	s.HandleSimilarity(0.75, t0)
	assert.Equal(t, domain.NavApproaching, s.State())

	s.HandleSimilarity(0.6, t0)
	assert.Equal(t, domain.NavNavigating, s.State())
}

func TestSession_OffTrackAfterThreeMisses(t *testing.T) {
	s := startedSession(t)

	assert.Equal(t, "", s.HandleSimilarity(0.3, t0))
	assert.Equal(t, "", s.HandleSimilarity(0.3, t0.Add(time.Second)))
	assert.Equal(t, 2, s.Snapshot().OffTrackCounter)

	text := s.HandleSimilarity(0.3, t0.Add(2*time.Second))

	assert.Equal(t, domain.InstructionLookAround, text)
	assert.Equal(t, domain.NavReorienting, s.State())
	assert.Equal(t, t0.Add(12*time.Second), s.ReorientDeadline())

	// Comparison is paused.
	assert.Equal(t, "", s.HandleSimilarity(0.95, t0.Add(3*time.Second)))
	assert.Equal(t, 0, s.Snapshot().CurrentWaypointIndex)
}

func TestSession_SingleLowTickDoesNotTrigger(t *testing.T) {
	s := startedSession(t)

	s.HandleSimilarity(0.6, t0)
	s.HandleSimilarity(0.3, t0)
	s.HandleSimilarity(0.6, t0)
	s.HandleSimilarity(0.3, t0)
	s.HandleSimilarity(0.3, t0)

	assert.Equal(t, domain.NavNavigating, s.State())
	assert.Equal(t, 2, s.Snapshot().OffTrackCounter)
}

func TestSession_ReorientTimeout(t *testing.T) {
	s := startedSession(t)
	for i := 0; i < 3; i++ {
		s.HandleSimilarity(0.2, t0)
	}
	require.Equal(t, domain.NavReorienting, s.State())

	assert.Equal(t, "", s.HandleTimeout(t0.Add(9*time.Second)))
	assert.Equal(t, domain.NavReorienting, s.State())

	text := s.HandleTimeout(t0.Add(10 * time.Second))
	assert.Equal(t, "Resuming. Continue straight", text)
	assert.Equal(t, domain.NavNavigating, s.State())
	assert.Equal(t, 0, s.Snapshot().OffTrackCounter)
	assert.Equal(t, 0, s.Snapshot().CurrentWaypointIndex)
	assert.True(t, s.ReorientDeadline().IsZero())
}

func TestSession_ExplicitResume(t *testing.T) {
	s := startedSession(t)
	assert.Equal(t, "", s.Resume(), "resume outside reorienting is ignored")

	for i := 0; i < 3; i++ {
		s.HandleSimilarity(0.2, t0)
	}
	assert.NotEmpty(t, s.Resume())
	assert.Equal(t, domain.NavNavigating, s.State())
}

func TestSession_Stop(t *testing.T) {
	s := startedSession(t)

	assert.Equal(t, "Navigation stopped", s.Stop())
	assert.Equal(t, domain.NavStopped, s.State())
	assert.Equal(t, "", s.HandleSimilarity(0.95, t0))
	assert.Equal(t, "", s.Stop())
}

func TestSession_HandleEmbedding(t *testing.T) {
	s := startedSession(t)

	text, err := s.HandleEmbedding([]float32{1, 0.1, 0}, t0)
	require.NoError(t, err)
	assert.Equal(t, "Turn right", text)

	_, err = s.HandleEmbedding([]float32{1, 0}, t0)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 1, s.Snapshot().CurrentWaypointIndex)

	// Only the current target counts, even if a later waypoint matches.
	text, err = s.HandleEmbedding([]float32{0, 0, 1}, t0)
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Equal(t, 1, s.Snapshot().OffTrackCounter)
}
