package services

import (
	"math"
	"time"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// MaxTargetAttempts bounds the failed samples taken at one target.
const MaxTargetAttempts = 3

// ScanGate decides when the user has held still facing a scan target
// long enough to take a sample. Targets sit every TargetStep degrees
// starting at north. A target is ready once the heading has stayed within
// CaptureAngle of it for Dwell; leaving the window resets the timer.
// A target whose sample fails stays open for another try, up to
// MaxTargetAttempts, after which it is given up.
//
// ScanGate is not safe for concurrent use.
type ScanGate struct {
	step     float64
	capture  float64
	dwell    time.Duration
	visited  []bool
	attempts []int
	count    int

	current   int
	enteredAt time.Time
}

// NewScanGate creates a gate with every target unvisited.
func NewScanGate(s domain.ScanSettings) *ScanGate {
	n := s.Targets()
	return &ScanGate{
		step:     s.TargetStep,
		capture:  s.CaptureAngle,
		dwell:    s.Dwell,
		visited:  make([]bool, n),
		attempts: make([]int, n),
		current:  -1,
	}
}

// Observe feeds a heading reading taken at now. It returns the target
// the user is facing, or -1 if none, and whether the dwell has elapsed.
func (g *ScanGate) Observe(heading float64, now time.Time) (int, bool) {
	n := len(g.visited)
	if n == 0 {
		return -1, false
	}

	h := domain.Normalize(heading)
	idx := int(math.Round(h/g.step)) % n
	inWindow := math.Abs(domain.SignedDelta(h, g.TargetAngle(idx))) <= g.capture

	if !inWindow || g.visited[idx] {
		g.current = -1
		return -1, false
	}

	if idx != g.current {
		g.current = idx
		g.enteredAt = now
	}
	return idx, now.Sub(g.enteredAt) >= g.dwell
}

// MarkVisited records that a sample was taken at target i.
func (g *ScanGate) MarkVisited(i int) {
	if i < 0 || i >= len(g.visited) || g.visited[i] {
		return
	}
	g.visited[i] = true
	g.count++
	if g.current == i {
		g.current = -1
	}
}

// MarkFailed records a failed sample at target i. The target stays open,
// and the user is still facing it, so the next Observe is ready again at
// once. Returns true when the target has used up its attempts and is
// closed without a sample.
func (g *ScanGate) MarkFailed(i int) bool {
	if i < 0 || i >= len(g.visited) || g.visited[i] {
		return false
	}
	g.attempts[i]++
	if g.attempts[i] < MaxTargetAttempts {
		return false
	}
	g.MarkVisited(i)
	return true
}

// TargetAngle returns the heading of target i.
func (g *ScanGate) TargetAngle(i int) float64 {
	return float64(i) * g.step
}

// Targets returns the total number of targets.
func (g *ScanGate) Targets() int {
	return len(g.visited)
}

// Visited returns how many targets are closed, sampled or given up.
func (g *ScanGate) Visited() int {
	return g.count
}

// Complete reports whether every target has been sampled.
func (g *ScanGate) Complete() bool {
	return g.count == len(g.visited)
}

// NextTarget returns the unvisited target closest to heading, or -1.
func (g *ScanGate) NextTarget(heading float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, v := range g.visited {
		if v {
			continue
		}
		d := math.Abs(domain.SignedDelta(g.TargetAngle(i), heading))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
