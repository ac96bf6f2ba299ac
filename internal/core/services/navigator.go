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

// Ensure Navigator implements the interface.
var _ driving.NavigationService = (*Navigator)(nil)

// DefaultHeadingPoll is how often headings are read while orienting.
const DefaultHeadingPoll = 200 * time.Millisecond

// NavigatorDeps are the collaborators of a Navigator.
type NavigatorDeps struct {
	Camera   driven.Camera
	Frames   driven.FrameStore
	Embedder driven.ImageEmbedder
	Guidance driven.GuidanceSink
}

// Navigator drives a Session from sensors and timers.
//
// All session transitions happen on the goroutine running Navigate.
// Resume only signals it; Stop cancels the session context, which also
// aborts a capture or embedding call in flight.
type Navigator struct {
	deps        NavigatorDeps
	settings    domain.NavigationSettings
	headingPoll time.Duration
	now         func() time.Time

	// tickMu guards the embedding tick; a tick that cannot take it is skipped.
	tickMu sync.Mutex

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	resumeCh chan struct{}
	snapshot domain.NavigationSnapshot
}

// NewNavigator creates a navigator.
func NewNavigator(deps NavigatorDeps, settings domain.NavigationSettings) *Navigator {
	return &Navigator{
		deps:        deps,
		settings:    settings,
		headingPoll: DefaultHeadingPoll,
		now:         time.Now,
		snapshot:    domain.NavigationSnapshot{State: domain.NavIdle},
	}
}

// Navigate guides the user along path until the destination is reached,
// Stop is called or ctx is cancelled. headings may be nil when the device
// has no compass; orientation is then skipped.
func (n *Navigator) Navigate(ctx context.Context, path *domain.NavigationPath, headings driving.HeadingSource) (domain.NavigationSnapshot, error) {
	session, err := NewSession(path, n.settings)
	if err != nil {
		return domain.NavigationSnapshot{}, err
	}

	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return domain.NavigationSnapshot{}, domain.ErrSessionActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	n.running = true
	n.cancel = cancel
	n.resumeCh = make(chan struct{}, 1)
	resumeCh := n.resumeCh
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.running = false
		n.cancel = nil
		n.mu.Unlock()
		cancel()
	}()

	return n.run(runCtx, session, headings, resumeCh)
}

func (n *Navigator) run(
	ctx context.Context,
	session *Session,
	headings driving.HeadingSource,
	resumeCh <-chan struct{},
) (domain.NavigationSnapshot, error) {
	heading, hasCompass := readHeading(headings)
	text, err := session.Start(heading, hasCompass)
	if err != nil {
		return session.Snapshot(), err
	}
	n.publish(session, text)
	logger.Info("navigator: started path %s in %s", session.path.ID, session.State())

	ticker := time.NewTicker(n.settings.Interval)
	defer ticker.Stop()

	var headingC <-chan time.Time
	if hasCompass {
		headingTicker := time.NewTicker(n.headingPoll)
		defer headingTicker.Stop()
		headingC = headingTicker.C
	}

	var reorient *time.Timer
	var reorientC <-chan time.Time
	defer func() {
		if reorient != nil {
			reorient.Stop()
		}
	}()

	for {
		// A stop that landed during a tick wins over any ready timer.
		if ctx.Err() != nil {
			n.publish(session, session.Stop())
			return session.Snapshot(), nil
		}

		var text string
		select {
		case <-ctx.Done():
			n.publish(session, session.Stop())
			return session.Snapshot(), nil
		case <-resumeCh:
			text = session.Resume()
		case <-headingC:
			if h, ok := readHeading(headings); ok {
				text = session.HandleHeading(h)
			}
		case <-ticker.C:
			text = n.tick(ctx, session)
		case <-reorientC:
			text = session.HandleTimeout(n.now())
		}

		// Arm the resume timer on entering reorienting, disarm on leaving.
		if session.State() == domain.NavReorienting {
			if reorient == nil {
				wait := session.ReorientDeadline().Sub(n.now())
				reorient = time.NewTimer(max(wait, 0))
				reorientC = reorient.C
			}
		} else if reorient != nil {
			reorient.Stop()
			reorient, reorientC = nil, nil
		}

		n.publish(session, text)

		if session.State() == domain.NavDestinationReached {
			logger.Info("navigator: destination reached on path %s", session.path.ID)
			return session.Snapshot(), nil
		}
	}
}

// tick captures and embeds a frame and feeds it to the session.
// Sensor and embedding failures are treated as a tick with no vote.
func (n *Navigator) tick(ctx context.Context, session *Session) string {
	if !session.comparing() {
		return ""
	}
	if !n.tickMu.TryLock() {
		logger.Debug("navigator: tick skipped, previous still running")
		return ""
	}
	defer n.tickMu.Unlock()

	emb, err := n.embedFrame(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("navigator: no vote this tick: %v", err)
		}
		return ""
	}

	text, err := session.HandleEmbedding(emb, n.now())
	if err != nil {
		logger.Warn("navigator: comparison skipped: %v", err)
		return ""
	}
	logger.Debug("navigator: waypoint %d sim=%.3f state=%s",
		session.index, session.lastSimilarity, session.State())
	return text
}

func (n *Navigator) embedFrame(ctx context.Context) ([]float32, error) {
	ref, err := n.deps.Camera.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}
	defer func() {
		if err := n.deps.Frames.Delete(context.WithoutCancel(ctx), ref); err != nil {
			logger.Warn("navigator: delete frame %s: %v", ref, err)
		}
	}()

	img, err := n.deps.Frames.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load frame: %w", err)
	}
	return n.deps.Embedder.Embed(ctx, img, driven.EmbedRealtime)
}

// publish announces text, if any, and stores the latest snapshot.
func (n *Navigator) publish(session *Session, text string) {
	snap := session.Snapshot()

	n.mu.Lock()
	n.snapshot = snap
	n.mu.Unlock()

	if text != "" && n.deps.Guidance != nil {
		n.deps.Guidance.Announce(text)
	}
	if obs, ok := n.deps.Guidance.(driven.StatusObserver); ok {
		obs.Observe(snap)
	}
}

// Resume leaves the reorienting state immediately.
func (n *Navigator) Resume() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.running {
		return
	}
	select {
	case n.resumeCh <- struct{}{}:
	default:
	}
}

// Stop ends the running session.
func (n *Navigator) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.running {
		return
	}
	n.cancel()
}

// Snapshot returns the latest session state.
func (n *Navigator) Snapshot() domain.NavigationSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshot
}

func readHeading(headings driving.HeadingSource) (float64, bool) {
	if headings == nil {
		return 0, false
	}
	return headings.Heading()
}
