package services

import (
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/similarity"
)

// Session is the navigation state machine for one path.
//
// It does no I/O: handlers take the current time and readings and return
// the instruction to announce, or "" when there is nothing new to say.
// A Session is owned by a single goroutine.
type Session struct {
	settings domain.NavigationSettings
	path     *domain.NavigationPath

	state            domain.NavState
	index            int
	offTrack         int
	lastInstruction  string
	lastSimilarity   float64
	reorientDeadline time.Time
}

// NewSession creates an idle session for path.
func NewSession(path *domain.NavigationPath, settings domain.NavigationSettings) (*Session, error) {
	if path == nil {
		return nil, fmt.Errorf("%w: nil path", domain.ErrInvalidInput)
	}
	if err := path.Validate(); err != nil {
		return nil, fmt.Errorf("invalid path %s: %w", path.ID, err)
	}
	return &Session{
		settings: settings,
		path:     path,
		state:    domain.NavIdle,
	}, nil
}

// Start begins guidance. With a compass the user is first turned to face
// the first waypoint; without one guidance starts walking straight away.
func (s *Session) Start(heading float64, hasCompass bool) (string, error) {
	if s.state != domain.NavIdle {
		return "", fmt.Errorf("%w: session is %s", domain.ErrInvalidState, s.state)
	}
	if !hasCompass {
		s.state = domain.NavNavigating
		return s.say(domain.InstructionFaceForward), nil
	}
	s.state = domain.NavOrienting
	return s.orient(heading), nil
}

// HandleHeading steers the user towards the first waypoint while orienting.
// Headings are ignored in every other state.
func (s *Session) HandleHeading(heading float64) string {
	if s.state != domain.NavOrienting {
		return ""
	}
	return s.orient(heading)
}

func (s *Session) orient(heading float64) string {
	delta := domain.SignedDelta(s.path.Waypoints[0].Heading, heading)
	switch {
	case math.Abs(delta) <= s.settings.CaptureAngle:
		s.state = domain.NavNavigating
		return s.say(domain.InstructionFaceForward)
	case delta < 0:
		return s.say(domain.TurnLeft.Instruction())
	default:
		return s.say(domain.TurnRight.Instruction())
	}
}

// HandleEmbedding compares a live frame against the current waypoint.
// Only the current target is compared, never the rest of the path.
// A dimension mismatch is returned and leaves the session unchanged.
func (s *Session) HandleEmbedding(embedding []float32, now time.Time) (string, error) {
	if !s.comparing() {
		return "", nil
	}
	sim, err := similarity.Cosine(s.path.Waypoints[s.index].Embedding, embedding)
	if err != nil {
		return "", err
	}
	return s.HandleSimilarity(sim, now), nil
}

// HandleSimilarity advances the state machine with one comparison score.
func (s *Session) HandleSimilarity(sim float64, now time.Time) string {
	if !s.comparing() {
		return ""
	}
	s.lastSimilarity = sim

	switch {
	case sim > s.settings.ReachedThreshold:
		s.offTrack = 0
		s.index++
		if s.index >= len(s.path.Waypoints) {
			s.index = len(s.path.Waypoints) - 1
			s.state = domain.NavDestinationReached
			return s.announce(domain.InstructionArrived)
		}
		s.state = domain.NavNavigating
		return s.announce(s.waypointInstruction(s.index))

	case sim < s.settings.OffTrackThreshold:
		s.offTrack++
		if s.offTrack >= s.settings.OffTrackLimit {
			s.state = domain.NavReorienting
			s.reorientDeadline = now.Add(s.settings.ReorientTimeout)
			return s.announce(domain.InstructionLookAround)
		}
		s.state = domain.NavNavigating
		return ""

	default:
		s.offTrack = 0
		if sim >= s.settings.ApproachThreshold {
			s.state = domain.NavApproaching
		} else {
			s.state = domain.NavNavigating
		}
		return ""
	}
}

// HandleTimeout resumes comparison once the reorient deadline has passed.
func (s *Session) HandleTimeout(now time.Time) string {
	if s.state != domain.NavReorienting || now.Before(s.reorientDeadline) {
		return ""
	}
	return s.resume()
}

// Resume leaves reorienting immediately, keeping the same waypoint.
func (s *Session) Resume() string {
	if s.state != domain.NavReorienting {
		return ""
	}
	return s.resume()
}

func (s *Session) resume() string {
	s.state = domain.NavNavigating
	s.offTrack = 0
	s.reorientDeadline = time.Time{}
	return s.announce("Resuming. " + s.waypointInstruction(s.index))
}

// Stop ends the session. A session that reached its destination stays there.
func (s *Session) Stop() string {
	if s.state.IsTerminal() {
		return ""
	}
	s.state = domain.NavStopped
	return s.announce("Navigation stopped")
}

// State returns the current state.
func (s *Session) State() domain.NavState {
	return s.state
}

// ReorientDeadline returns when reorienting ends, zero if not reorienting.
func (s *Session) ReorientDeadline() time.Time {
	return s.reorientDeadline
}

// Snapshot returns a read-only copy of the session.
func (s *Session) Snapshot() domain.NavigationSnapshot {
	return domain.NavigationSnapshot{
		State:                s.state,
		PathID:               s.path.ID,
		CurrentWaypointIndex: s.index,
		WaypointCount:        len(s.path.Waypoints),
		OffTrackCounter:      s.offTrack,
		LastInstruction:      s.lastInstruction,
		LastSimilarity:       s.lastSimilarity,
		ReorientDeadline:     s.reorientDeadline,
	}
}

func (s *Session) comparing() bool {
	return s.state == domain.NavNavigating || s.state == domain.NavApproaching
}

// waypointInstruction is the turn to make on the way to waypoint i,
// with its landmark if one was recorded.
func (s *Session) waypointInstruction(i int) string {
	w := &s.path.Waypoints[i]
	text := w.TurnType.Instruction()
	if w.LandmarkDescription != "" {
		text += " towards " + w.LandmarkDescription
	}
	return text
}

// announce records text as the last instruction and returns it.
func (s *Session) announce(text string) string {
	s.lastInstruction = text
	return text
}

// say records text as the last instruction and returns it, or "" if it
// repeats the previous one.
func (s *Session) say(text string) string {
	if text == s.lastInstruction {
		return ""
	}
	s.lastInstruction = text
	return text
}
