package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validPath() *NavigationPath {
	return &NavigationPath{
		ID:          "p1",
		StartNodeID: "entrance",
		EndNodeID:   "library",
		Waypoints: []Waypoint{
			{SequenceNumber: 0, Embedding: []float32{1, 0}, TurnType: TurnStraight},
			{SequenceNumber: 1, Embedding: []float32{0, 1}, TurnType: TurnRight, IsDecisionPoint: true},
		},
		EstimatedDistance: 12.6,
		EstimatedSteps:    18,
		CreatedAt:         time.Unix(1700000000, 0),
	}
}

func TestNavigationPath_Validate(t *testing.T) {
	assert.NoError(t, validPath().Validate())

	p := validPath()
	p.Waypoints = nil
	assert.True(t, errors.Is(p.Validate(), ErrInsufficientData))

	p = validPath()
	p.EndNodeID = ""
	assert.True(t, errors.Is(p.Validate(), ErrInvalidInput))

	p = validPath()
	p.Waypoints[1].SequenceNumber = 5
	assert.True(t, errors.Is(p.Validate(), ErrInvalidInput))

	p = validPath()
	p.Waypoints[1].Embedding = []float32{1, 2, 3}
	assert.True(t, errors.Is(p.Validate(), ErrDimensionMismatch))
}

func TestNavigationPath_Summary(t *testing.T) {
	p := validPath()
	s := p.Summary()

	assert.Equal(t, "p1", s.ID)
	assert.Equal(t, 2, s.WaypointCount)
	assert.Equal(t, 18, s.EstimatedSteps)
	assert.Equal(t, 1, p.DecisionPoints())
}

func TestNavigationSnapshot_Progress(t *testing.T) {
	assert.Equal(t, 0.0, NavigationSnapshot{}.Progress())
	assert.Equal(t, 0.5, NavigationSnapshot{CurrentWaypointIndex: 2, WaypointCount: 4}.Progress())
	assert.Equal(t, 1.0, NavigationSnapshot{State: NavDestinationReached, CurrentWaypointIndex: 3, WaypointCount: 4}.Progress())
}

func TestNavState(t *testing.T) {
	assert.True(t, NavStopped.IsTerminal())
	assert.True(t, NavDestinationReached.IsTerminal())
	assert.False(t, NavReorienting.IsTerminal())
	assert.Equal(t, "Off track, looking around", NavReorienting.Description())
	assert.Equal(t, "orienting", NavOrienting.String())
}

func TestLocalizationResult_IsUnknown(t *testing.T) {
	assert.True(t, LocalizationResult{}.IsUnknown())
	assert.False(t, LocalizationResult{NodeID: "library", Confidence: 0.8}.IsUnknown())
}
