package domain

import "math"

// DecisionPointAngle is the absolute heading change, in degrees, at which
// a capture counts as a turn and becomes a decision point.
const DecisionPointAngle = 30.0

// DefaultUTurnAngle is the absolute heading change treated as a U-turn.
const DefaultUTurnAngle = 150.0

// TurnType classifies the heading change between two consecutive captures.
type TurnType string

// Available turn types.
const (
	TurnStraight TurnType = "straight"
	TurnLeft     TurnType = "left"
	TurnRight    TurnType = "right"
	TurnUTurn    TurnType = "uTurn"
)

// IsValid returns true if the turn type is recognised.
func (t TurnType) IsValid() bool {
	switch t {
	case TurnStraight, TurnLeft, TurnRight, TurnUTurn:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t TurnType) String() string {
	return string(t)
}

// Instruction returns the spoken guidance for taking this turn.
func (t TurnType) Instruction() string {
	switch t {
	case TurnLeft:
		return "Turn left"
	case TurnRight:
		return "Turn right"
	case TurnUTurn:
		return "Turn around"
	default:
		return "Continue straight"
	}
}

// Normalize maps any finite heading onto [0, 360).
func Normalize(h float64) float64 {
	return math.Mod(math.Mod(h, 360)+360, 360)
}

// SignedDelta returns the shortest signed rotation from previous to current,
// in [-180, 180]. Positive is clockwise (a right turn).
func SignedDelta(current, previous float64) float64 {
	d := Normalize(current) - Normalize(previous)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// ClassifyTurn maps a signed delta onto straight, left or right.
// A delta of exactly ±30° is a turn, consistent with IsDecisionPoint.
func ClassifyTurn(delta float64) TurnType {
	switch {
	case math.Abs(delta) < DecisionPointAngle:
		return TurnStraight
	case delta < 0:
		return TurnLeft
	default:
		return TurnRight
	}
}

// ClassifyTurnWithUTurn is ClassifyTurn with a U-turn band at or beyond
// uTurnAngle. A non-positive uTurnAngle disables the band.
func ClassifyTurnWithUTurn(delta, uTurnAngle float64) TurnType {
	if uTurnAngle > 0 && math.Abs(delta) >= uTurnAngle {
		return TurnUTurn
	}
	return ClassifyTurn(delta)
}

// IsDecisionPoint reports whether a heading change is large enough
// that the waypoint must survive compaction.
func IsDecisionPoint(delta float64) bool {
	return math.Abs(delta) >= DecisionPointAngle
}
