package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/core/ports/driving"
	"github.com/custodia-labs/sightline/internal/logger"
)

// Ensure Localizer implements the interface.
var _ driving.LocalizationService = (*Localizer)(nil)

// DefaultScanPoll is how often the scan loop reads the heading.
const DefaultScanPoll = 100 * time.Millisecond

// LocalizerDeps are the collaborators of a Localizer.
type LocalizerDeps struct {
	Camera    driven.Camera
	Frames    driven.FrameStore
	Embedder  driven.ImageEmbedder
	Locations driven.LocationStore
	Guidance  driven.GuidanceSink
}

// Localizer runs a 360° scan and votes on the collected samples.
type Localizer struct {
	deps     LocalizerDeps
	settings domain.ScanSettings
	voter    *Voter
	poll     time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	abortCh chan struct{}
}

// NewLocalizer creates a localizer.
func NewLocalizer(deps LocalizerDeps, settings domain.ScanSettings) *Localizer {
	return &Localizer{
		deps:     deps,
		settings: settings,
		voter:    NewVoter(settings),
		poll:     DefaultScanPoll,
		now:      time.Now,
	}
}

// Scan guides the user through a full turn, sampling once per target,
// then votes. An Abort ends the turn early and votes on what was taken.
// Returns domain.ErrInsufficientData if there are no reference locations
// or no samples were collected.
func (l *Localizer) Scan(ctx context.Context, headings driving.HeadingSource) (domain.LocalizationResult, error) {
	if headings == nil {
		return domain.LocalizationResult{}, fmt.Errorf("scan: %w", domain.ErrSensorUnavailable)
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return domain.LocalizationResult{}, domain.ErrSessionActive
	}
	l.running = true
	l.abortCh = make(chan struct{})
	abortCh := l.abortCh
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	refs, err := l.loadReferences(ctx)
	if err != nil {
		return domain.LocalizationResult{}, err
	}
	if len(refs) == 0 {
		return domain.LocalizationResult{}, fmt.Errorf("%w: no reference locations", domain.ErrInsufficientData)
	}

	samples, err := l.collect(ctx, headings, abortCh)
	if err != nil {
		return domain.LocalizationResult{}, err
	}

	result, err := l.voter.Vote(samples, refs)
	if err != nil {
		return result, err
	}
	if result.IsUnknown() {
		l.announce("Location unknown")
	} else {
		l.announce(fmt.Sprintf("You are at %s", result.NodeID))
	}
	return result, nil
}

// Abort ends a running scan early.
func (l *Localizer) Abort() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running && l.abortCh != nil {
		select {
		case <-l.abortCh:
		default:
			close(l.abortCh)
		}
	}
}

func (l *Localizer) loadReferences(ctx context.Context) ([]domain.LocationEmbedding, error) {
	locs, err := l.deps.Locations.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	var refs []domain.LocationEmbedding
	for _, loc := range locs {
		embs, err := l.deps.Locations.LoadLocationEmbeddings(ctx, loc.NodeID)
		if err != nil {
			return nil, fmt.Errorf("load embeddings for %s: %w", loc.NodeID, err)
		}
		refs = append(refs, embs...)
	}
	logger.Debug("localizer: %d reference embeddings across %d locations", len(refs), len(locs))
	return refs, nil
}

func (l *Localizer) collect(ctx context.Context, headings driving.HeadingSource, abortCh <-chan struct{}) ([]domain.ScanSample, error) {
	gate := NewScanGate(l.settings)
	samples := make([]domain.ScanSample, 0, gate.Targets())

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	l.announce("Slowly turn in a full circle")
	for !gate.Complete() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-abortCh:
			logger.Info("localizer: scan aborted with %d/%d targets", gate.Visited(), gate.Targets())
			return samples, nil
		case <-ticker.C:
		}

		h, ok := headings.Heading()
		if !ok {
			continue
		}
		target, ready := gate.Observe(h, l.now())
		if !ready {
			continue
		}

		emb, err := l.sample(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if gate.MarkFailed(target) {
				logger.Warn("localizer: giving up on target %d: %v", target, err)
				l.announceProgress(gate, h)
			} else {
				logger.Debug("localizer: target %d will be retried: %v", target, err)
			}
			continue
		}
		gate.MarkVisited(target)
		samples = append(samples, domain.ScanSample{
			Embedding:   emb,
			Heading:     h,
			TargetAngle: gate.TargetAngle(target),
		})
		l.announceProgress(gate, h)
	}

	l.announce(domain.InstructionScanComplete)
	return samples, nil
}

// announceProgress reports closed targets and which way the nearest open
// one lies.
func (l *Localizer) announceProgress(gate *ScanGate, heading float64) {
	progress := fmt.Sprintf("%d of %d", gate.Visited(), gate.Targets())
	next := gate.NextTarget(heading)
	if next < 0 {
		l.announce(progress)
		return
	}
	direction := "right"
	if domain.SignedDelta(gate.TargetAngle(next), heading) < 0 {
		direction = "left"
	}
	l.announce(fmt.Sprintf("%s, keep turning %s", progress, direction))
}

func (l *Localizer) sample(ctx context.Context) ([]float32, error) {
	ref, err := l.deps.Camera.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}
	defer func() {
		if err := l.deps.Frames.Delete(context.WithoutCancel(ctx), ref); err != nil {
			logger.Warn("localizer: delete frame %s: %v", ref, err)
		}
	}()

	img, err := l.deps.Frames.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load frame: %w", err)
	}
	emb, err := l.deps.Embedder.Embed(ctx, img, driven.EmbedRealtime)
	if err != nil {
		return nil, fmt.Errorf("embed frame: %w", err)
	}
	return emb, nil
}

func (l *Localizer) announce(text string) {
	if l.deps.Guidance != nil {
		l.deps.Guidance.Announce(text)
	}
}
