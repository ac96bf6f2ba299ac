package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/sightline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
)

// --- Fakes shared by the service tests ---

// scriptedCamera stores the next scripted image in a FrameStore on every
// capture. Once the script runs out the last image repeats.
type scriptedCamera struct {
	mu       sync.Mutex
	frames   *memory.FrameStore
	images   []string
	next     int
	err      error
	captures int
}

func newScriptedCamera(frames *memory.FrameStore, images ...string) *scriptedCamera {
	return &scriptedCamera{frames: frames, images: images}
}

func (c *scriptedCamera) Capture(_ context.Context) (domain.ImageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	if len(c.images) == 0 {
		return "", domain.ErrSensorUnavailable
	}
	i := min(c.next, len(c.images)-1)
	c.next++
	c.captures++
	return c.frames.Put([]byte(c.images[i])), nil
}

func (c *scriptedCamera) setImages(images ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = images
	c.next = 0
}

// fakeEmbedder maps image contents to embeddings.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	failOn  map[string]bool
	modes   []driven.EmbedMode
	calls   int

	// hang makes Embed block until its context is done.
	hang bool
	// failNext fails that many calls before answering normally.
	failNext int
}

func newFakeEmbedder(vectors map[string][]float32) *fakeEmbedder {
	return &fakeEmbedder{vectors: vectors, failOn: map[string]bool{}}
}

func (e *fakeEmbedder) Embed(ctx context.Context, image []byte, mode driven.EmbedMode) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.modes = append(e.modes, mode)
	if e.hang {
		e.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	defer e.mu.Unlock()
	key := string(image)
	if e.failNext > 0 {
		e.failNext--
		return nil, errors.Join(domain.ErrEmbeddingService, errors.New("connection reset"))
	}
	if e.failOn[key] {
		return nil, errors.Join(domain.ErrEmbeddingService, errors.New("model timeout"))
	}
	v, ok := e.vectors[key]
	if !ok {
		return nil, errors.Join(domain.ErrEmbeddingService, errors.New("unknown image "+key))
	}
	return v, nil
}

func (e *fakeEmbedder) Dimensions() int              { return 0 }
func (e *fakeEmbedder) ModelName() string            { return "fake" }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error                 { return nil }

func (e *fakeEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *fakeEmbedder) modeCount(m driven.EmbedMode) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, got := range e.modes {
		if got == m {
			n++
		}
	}
	return n
}

// fakeDetector reports people in images listed in crowded.
type fakeDetector struct {
	crowded map[string]bool
	err     error
}

func (d *fakeDetector) Detect(_ context.Context, image []byte) (domain.Detection, error) {
	if d.err != nil {
		return domain.Detection{}, d.err
	}
	if d.crowded[string(image)] {
		return domain.Detection{PeopleDetected: true, PeopleCount: 2, Confidences: []float64{0.9, 0.8}}, nil
	}
	return domain.Detection{}, nil
}

// failingPathStore wraps a memory store and fails Save a set number of times.
type failingPathStore struct {
	*memory.PathStore
	mu       sync.Mutex
	failures int
	saves    int
}

func (s *failingPathStore) Save(ctx context.Context, p *domain.NavigationPath) error {
	s.mu.Lock()
	s.saves++
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return errors.New("disk full")
	}
	s.mu.Unlock()
	return s.PathStore.Save(ctx, p)
}

// recordingSink collects announcements.
type recordingSink struct {
	mu        sync.Mutex
	said      []string
	snapshots []domain.NavigationSnapshot
}

func (s *recordingSink) Announce(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
}

func (s *recordingSink) Observe(snap domain.NavigationSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
}

func (s *recordingSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.said...)
}

// fixedSteps is a step counter that adds a fixed stride per read.
type fixedSteps struct {
	mu    sync.Mutex
	total int
	per   int
}

func (f *fixedSteps) Steps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total += f.per
	return f.total
}

// manualHeading is a HeadingSource the test moves by hand.
type manualHeading struct {
	mu      sync.Mutex
	heading float64
	ok      bool
}

func (h *manualHeading) Heading() (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.heading, h.ok
}

func (h *manualHeading) set(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.heading, h.ok = v, true
}
