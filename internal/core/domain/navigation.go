package domain

import "time"

// NavState is the state of a navigation session.
type NavState string

// Navigation states.
const (
	NavIdle               NavState = "idle"
	NavOrienting          NavState = "orienting"
	NavNavigating         NavState = "navigating"
	NavApproaching        NavState = "approaching_waypoint"
	NavReorienting        NavState = "reorienting"
	NavDestinationReached NavState = "destination_reached"
	NavStopped            NavState = "stopped"
)

// String returns the string representation.
func (s NavState) String() string {
	return string(s)
}

// IsTerminal returns true once the session no longer reacts to input.
func (s NavState) IsTerminal() bool {
	return s == NavDestinationReached || s == NavStopped
}

// Description returns a human-readable description of the state.
func (s NavState) Description() string {
	switch s {
	case NavIdle:
		return "Not started"
	case NavOrienting:
		return "Facing the first waypoint"
	case NavNavigating:
		return "Walking towards the next waypoint"
	case NavApproaching:
		return "Close to the next waypoint"
	case NavReorienting:
		return "Off track, looking around"
	case NavDestinationReached:
		return "Destination reached"
	case NavStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Standard guidance phrases.
const (
	InstructionFaceForward   = "Walk forward"
	InstructionLookAround    = "You may be off track. Slowly look around."
	InstructionArrived       = "You have arrived at your destination"
	InstructionRecordStarted = "Recording started"
	InstructionScanComplete  = "Scan complete"
)

// NavigationSnapshot is a read-only view of a navigation session.
type NavigationSnapshot struct {
	State                NavState
	PathID               string
	CurrentWaypointIndex int
	WaypointCount        int
	OffTrackCounter      int
	LastInstruction      string
	LastSimilarity       float64
	ReorientDeadline     time.Time
}

// Progress returns the fraction of waypoints passed, in [0, 1].
func (s NavigationSnapshot) Progress() float64 {
	if s.WaypointCount == 0 {
		return 0
	}
	if s.State == NavDestinationReached {
		return 1
	}
	return float64(s.CurrentWaypointIndex) / float64(s.WaypointCount)
}
