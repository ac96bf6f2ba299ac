package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/core/ports/driving"
	"github.com/custodia-labs/sightline/internal/logger"
)

// Ensure Recorder implements the interface.
var _ driving.RecorderService = (*Recorder)(nil)

// RecorderDeps are the collaborators of a Recorder.
// Detector and Steps are optional.
type RecorderDeps struct {
	Camera   driven.Camera
	Frames   driven.FrameStore
	Embedder driven.ImageEmbedder
	Detector driven.PersonDetector
	Steps    driven.StepCounter
	Paths    driven.PathStore
	Guidance driven.GuidanceSink
}

// Recorder captures a walked route and turns it into a NavigationPath.
//
// Phase one (Tick) only grabs frames and headings so the walk is never
// held up by the model. Phase two (Finish) embeds, compacts and persists.
type Recorder struct {
	deps     RecorderDeps
	settings domain.RecordingSettings
	batch    *BatchEmbedder
	now      func() time.Time

	// tickMu is held for the duration of a tick; a tick that cannot
	// take it is skipped.
	tickMu sync.Mutex

	mu          sync.Mutex
	state       driving.RecorderState
	startNodeID string
	endNodeID   string
	arrived     bool
	captures    []domain.RawCapture
	prevHeading float64
	hasPrev     bool
	lastSteps   int
	skipped     int
	pending     *domain.NavigationPath
	stopCh      chan struct{}
}

// NewRecorder creates a recorder.
func NewRecorder(deps RecorderDeps, settings domain.RecordingSettings) *Recorder {
	return &Recorder{
		deps:     deps,
		settings: settings,
		batch:    NewBatchEmbedder(deps.Embedder, deps.Frames, deps.Detector, settings),
		now:      time.Now,
		state:    driving.RecorderIdle,
	}
}

// Start begins a recording between two nodes.
func (r *Recorder) Start(startNodeID, endNodeID string) error {
	if startNodeID == "" || endNodeID == "" {
		return fmt.Errorf("%w: start and end node are required", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case driving.RecorderIdle, driving.RecorderAborted, driving.RecorderPersisted, driving.RecorderFailed:
	default:
		return fmt.Errorf("%w: recorder is %s", domain.ErrSessionActive, r.state)
	}

	r.state = driving.RecorderRecording
	r.startNodeID = startNodeID
	r.endNodeID = endNodeID
	r.arrived = false
	r.captures = nil
	r.hasPrev = false
	r.prevHeading = 0
	r.skipped = 0
	r.pending = nil
	r.stopCh = make(chan struct{})
	r.lastSteps = 0
	if r.deps.Steps != nil {
		r.lastSteps = r.deps.Steps.Steps()
	}

	logger.Info("recorder: started %s -> %s", startNodeID, endNodeID)
	r.announce(domain.InstructionRecordStarted)
	return nil
}

// Tick takes one capture at the given heading. The first capture has a
// heading change of zero. Returns domain.ErrBusy if a tick is in progress.
func (r *Recorder) Tick(ctx context.Context, heading float64) (*domain.RawCapture, error) {
	if !r.tickMu.TryLock() {
		r.mu.Lock()
		r.skipped++
		r.mu.Unlock()
		return nil, domain.ErrBusy
	}
	defer r.tickMu.Unlock()

	r.mu.Lock()
	if r.state != driving.RecorderRecording {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: recorder is %s", domain.ErrInvalidState, state)
	}
	r.mu.Unlock()

	ref, err := r.deps.Camera.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Stop or Abort may have landed while the camera was busy.
	if r.state != driving.RecorderRecording {
		r.deleteFrame(ctx, ref)
		return nil, fmt.Errorf("%w: recorder is %s", domain.ErrInvalidState, r.state)
	}

	h := domain.Normalize(heading)
	delta := 0.0
	if r.hasPrev {
		delta = domain.SignedDelta(h, r.prevHeading)
	}

	steps := 0
	if r.deps.Steps != nil {
		total := r.deps.Steps.Steps()
		steps = max(total-r.lastSteps, 0)
		r.lastSteps = total
	}

	c := domain.RawCapture{
		ImageRef:        ref,
		Heading:         h,
		HeadingChange:   delta,
		TurnType:        domain.ClassifyTurnWithUTurn(delta, r.settings.UTurnAngle),
		IsDecisionPoint: domain.IsDecisionPoint(delta),
		SequenceNumber:  len(r.captures),
		Timestamp:       r.now(),
		Steps:           steps,
	}
	r.captures = append(r.captures, c)
	r.prevHeading = h
	r.hasPrev = true

	logger.Debug("recorder: capture %d heading=%.1f delta=%.1f turn=%s", c.SequenceNumber, h, delta, c.TurnType)
	return &c, nil
}

// Run ticks on the recording interval until the capture phase ends.
// Without a compass reading the previous heading is reused.
func (r *Recorder) Run(ctx context.Context, headings driving.HeadingSource) error {
	r.mu.Lock()
	if r.state != driving.RecorderRecording {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("%w: recorder is %s", domain.ErrInvalidState, state)
	}
	stopCh := r.stopCh
	r.mu.Unlock()

	ticker := time.NewTicker(r.settings.Interval)
	defer ticker.Stop()

	r.tickOnce(ctx, headings)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			r.tickOnce(ctx, headings)
		}
	}
}

func (r *Recorder) tickOnce(ctx context.Context, headings driving.HeadingSource) {
	r.mu.Lock()
	heading := r.prevHeading
	r.mu.Unlock()

	if headings != nil {
		if h, ok := headings.Heading(); ok {
			heading = h
		}
	}

	if _, err := r.Tick(ctx, heading); err != nil && !errors.Is(err, domain.ErrInvalidState) {
		logger.Warn("recorder: tick skipped: %v", err)
	}
}

// Stop ends the capture phase.
func (r *Recorder) Stop() error {
	return r.endCapture(false)
}

// ArriveAtDestination ends the capture phase at the end node.
func (r *Recorder) ArriveAtDestination() error {
	return r.endCapture(true)
}

func (r *Recorder) endCapture(arrived bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != driving.RecorderRecording {
		return fmt.Errorf("%w: recorder is %s", domain.ErrInvalidState, r.state)
	}
	r.state = driving.RecorderStopped
	r.arrived = arrived
	close(r.stopCh)

	logger.Info("recorder: stopped after %d captures (%d ticks skipped)", len(r.captures), r.skipped)
	return nil
}

// Abort discards all captures and deletes their frames.
func (r *Recorder) Abort(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case driving.RecorderRecording:
		close(r.stopCh)
	case driving.RecorderStopped, driving.RecorderSaveFailed:
	default:
		return fmt.Errorf("%w: recorder is %s", domain.ErrInvalidState, r.state)
	}

	for _, c := range r.captures {
		r.deleteFrame(ctx, c.ImageRef)
	}
	r.captures = nil
	r.pending = nil
	r.state = driving.RecorderAborted

	logger.Info("recorder: aborted")
	return nil
}

// Finish embeds, compacts and persists the recorded path.
// Returns domain.ErrInsufficientData when no capture survives embedding.
// On a storage failure the built path is kept for RetrySave.
func (r *Recorder) Finish(ctx context.Context) (*domain.NavigationPath, error) {
	r.mu.Lock()
	if r.state != driving.RecorderStopped {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: recorder is %s", domain.ErrInvalidState, state)
	}
	r.state = driving.RecorderProcessing
	captures := r.captures
	r.captures = nil
	if !r.arrived {
		logger.Warn("recorder: capture stopped before reaching %s", r.endNodeID)
	}
	r.mu.Unlock()

	// 1. Embed every capture
	logger.Section("Batch Processing")
	waypoints, report, err := r.batch.EmbedCaptures(ctx, captures)
	if err != nil {
		r.setState(driving.RecorderFailed)
		return nil, err
	}
	logger.Info("recorder: embedded %d/%d captures, %d with people removed",
		report.Embedded, report.Captures, report.PeopleRemoved)

	if len(waypoints) == 0 {
		r.setState(driving.RecorderFailed)
		return nil, fmt.Errorf("%w: no capture could be embedded", domain.ErrInsufficientData)
	}

	// 2. Compact redundant waypoints
	r.setState(driving.RecorderFiltering)
	before := len(waypoints)
	waypoints = CompactWaypoints(waypoints, CompactionOptions{
		SimilarityThreshold: r.settings.SimilarityThreshold,
		HeadingThreshold:    r.settings.HeadingThreshold,
	})
	logger.Info("recorder: compacted %d -> %d waypoints", before, len(waypoints))

	// 3. Build the path
	steps := 0
	for _, c := range captures {
		steps += c.Steps
	}
	r.mu.Lock()
	path := &domain.NavigationPath{
		ID:                uuid.New().String(),
		StartNodeID:       r.startNodeID,
		EndNodeID:         r.endNodeID,
		Waypoints:         waypoints,
		EstimatedSteps:    steps,
		EstimatedDistance: float64(steps) * r.settings.StrideLength,
		Dimensions:        len(waypoints[0].Embedding),
		CreatedAt:         r.now(),
	}
	r.pending = path
	r.mu.Unlock()

	// 4. Persist
	return r.persist(ctx)
}

// RetrySave persists a path whose earlier save failed.
func (r *Recorder) RetrySave(ctx context.Context) (*domain.NavigationPath, error) {
	r.mu.Lock()
	if r.state != driving.RecorderSaveFailed || r.pending == nil {
		state := r.state
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: recorder is %s", domain.ErrInvalidState, state)
	}
	r.mu.Unlock()

	return r.persist(ctx)
}

func (r *Recorder) persist(ctx context.Context) (*domain.NavigationPath, error) {
	r.mu.Lock()
	path := r.pending
	r.mu.Unlock()

	if err := r.deps.Paths.Save(ctx, path); err != nil {
		r.setState(driving.RecorderSaveFailed)
		logger.Warn("recorder: save failed, path %s kept for retry: %v", path.ID, err)
		if errors.Is(err, domain.ErrStorage) {
			return nil, fmt.Errorf("save path: %w", err)
		}
		return nil, fmt.Errorf("save path: %w: %w", domain.ErrStorage, err)
	}

	r.mu.Lock()
	r.pending = nil
	r.state = driving.RecorderPersisted
	r.mu.Unlock()

	r.announce(fmt.Sprintf("Path saved with %d waypoints", len(path.Waypoints)))
	logger.Info("recorder: saved path %s", path.ID)
	return path, nil
}

// State returns the current lifecycle state.
func (r *Recorder) State() driving.RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Captures returns a copy of the raw captures taken so far.
func (r *Recorder) Captures() []domain.RawCapture {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RawCapture, len(r.captures))
	copy(out, r.captures)
	return out
}

func (r *Recorder) setState(s driving.RecorderState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Recorder) deleteFrame(ctx context.Context, ref domain.ImageRef) {
	if err := r.deps.Frames.Delete(context.WithoutCancel(ctx), ref); err != nil {
		logger.Warn("recorder: delete frame %s: %v", ref, err)
	}
}

func (r *Recorder) announce(text string) {
	if r.deps.Guidance != nil {
		r.deps.Guidance.Announce(text)
	}
}
