package domain

import "time"

// ImageRef identifies a transient camera frame held by a FrameStore.
// It is only valid until the frame is deleted.
type ImageRef string

// RawCapture is a frame reference taken during real-time recording.
// No embedding is computed while walking.
type RawCapture struct {
	ImageRef        ImageRef
	Heading         float64
	HeadingChange   float64
	TurnType        TurnType
	IsDecisionPoint bool
	SequenceNumber  int
	Timestamp       time.Time
	// Steps walked since the previous capture, zero without a step counter.
	Steps int
}

// Waypoint is a visual checkpoint along a recorded path.
type Waypoint struct {
	SequenceNumber       int
	Embedding            []float32
	Heading              float64
	HeadingChange        float64
	TurnType             TurnType
	IsDecisionPoint      bool
	LandmarkDescription  string
	DistanceFromPrevious float64
}

// NavigationPath is the ordered list of waypoints between two nodes.
// Once persisted it is immutable.
type NavigationPath struct {
	ID                string
	StartNodeID       string
	EndNodeID         string
	Waypoints         []Waypoint
	EstimatedDistance float64
	EstimatedSteps    int
	Dimensions        int
	CreatedAt         time.Time
}

// PathSummary is a listing view of a NavigationPath without embeddings.
type PathSummary struct {
	ID                string
	StartNodeID       string
	EndNodeID         string
	WaypointCount     int
	EstimatedDistance float64
	EstimatedSteps    int
	CreatedAt         time.Time
}

// Summary returns the listing view of the path.
func (p *NavigationPath) Summary() PathSummary {
	return PathSummary{
		ID:                p.ID,
		StartNodeID:       p.StartNodeID,
		EndNodeID:         p.EndNodeID,
		WaypointCount:     len(p.Waypoints),
		EstimatedDistance: p.EstimatedDistance,
		EstimatedSteps:    p.EstimatedSteps,
		CreatedAt:         p.CreatedAt,
	}
}

// DecisionPoints returns the number of waypoints marked as decision points.
func (p *NavigationPath) DecisionPoints() int {
	n := 0
	for i := range p.Waypoints {
		if p.Waypoints[i].IsDecisionPoint {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants of a path: at least one
// waypoint, contiguous sequence numbers from zero and a single
// embedding dimension.
func (p *NavigationPath) Validate() error {
	if p.StartNodeID == "" || p.EndNodeID == "" {
		return ErrInvalidInput
	}
	if len(p.Waypoints) == 0 {
		return ErrInsufficientData
	}
	dim := len(p.Waypoints[0].Embedding)
	for i := range p.Waypoints {
		w := &p.Waypoints[i]
		if w.SequenceNumber != i {
			return ErrInvalidInput
		}
		if len(w.Embedding) != dim {
			return &DimensionMismatchError{Expected: dim, Actual: len(w.Embedding)}
		}
	}
	return nil
}

// Detection is the result of a person detector run on a frame.
type Detection struct {
	PeopleDetected bool
	PeopleCount    int
	Confidences    []float64
}
