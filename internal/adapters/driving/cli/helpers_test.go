package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sightline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/core/services"
)

// syncBuffer is a bytes.Buffer safe for the console sink and the
// command to write to at once.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeCamera serves the same frame on every capture.
type fakeCamera struct {
	*memory.FrameStore
	img []byte
	err error
}

func (c *fakeCamera) Capture(_ context.Context) (domain.ImageRef, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.Put(c.img), nil
}

// fakeGateway returns a fixed embedding.
type fakeGateway struct {
	vec     []float32
	pingErr error
	embeds  int
	mu      sync.Mutex
}

func (g *fakeGateway) Embed(_ context.Context, _ []byte, _ driven.EmbedMode) ([]float32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.embeds++
	return append([]float32(nil), g.vec...), nil
}

func (g *fakeGateway) Detect(_ context.Context, _ []byte) (domain.Detection, error) {
	return domain.Detection{}, nil
}

func (g *fakeGateway) Dimensions() int { return len(g.vec) }
func (g *fakeGateway) ModelName() string { return "fake-clip" }
func (g *fakeGateway) Ping(_ context.Context) error { return g.pingErr }
func (g *fakeGateway) Close() error { return nil }

// fakeCompass streams a constant heading.
type fakeCompass struct {
	heading float64
	err     error
}

func (c *fakeCompass) Headings(ctx context.Context) (<-chan float64, error) {
	if c.err != nil {
		return nil, c.err
	}
	ch := make(chan float64)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case ch <- c.heading:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// testRuntime builds a runtime on memory stores and fake sensors.
func testRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := &Runtime{
		Settings:  services.NewSettingsService(memory.NewConfigStore()),
		Paths:     memory.NewPathStore(),
		Locations: memory.NewLocationStore(),
		camera:    &fakeCamera{FrameStore: memory.NewFrameStore(), img: []byte("jpeg")},
		compass:   &fakeCompass{heading: 90},
		gateway:   &fakeGateway{vec: []float32{1, 0, 0}},
	}
	return rt
}

// useRuntime makes commands run against rt until the test ends.
func useRuntime(t *testing.T, rt *Runtime) {
	t.Helper()
	old := openRuntime
	oldWait := compassWait
	openRuntime = func(_ Options, out io.Writer) (*Runtime, error) {
		settings, err := rt.Settings.Get()
		if err != nil {
			return nil, err
		}
		rt.App = *settings
		rt.out = out
		rt.guidance = nil
		return rt, nil
	}
	compassWait = 100 * time.Millisecond
	t.Cleanup(func() {
		openRuntime = old
		compassWait = oldWait
	})
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), stdin, args...)
}

func executeContext(t *testing.T, ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	rootOpts = Options{}
	navigateOpts = navigateOptions{}
	locationOpts = locationOptions{samples: 1}

	if stdin == nil {
		stdin = strings.NewReader("")
	}
	buf := &syncBuffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// delayedLine returns a newline after d, giving the recorder time to tick.
type delayedLine struct {
	d    time.Duration
	done bool
}

func (r *delayedLine) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	time.Sleep(r.d)
	r.done = true
	return copy(p, "\n"), nil
}

func seedPath(t *testing.T, rt *Runtime, id, start, end string, vec []float32) *domain.NavigationPath {
	t.Helper()
	path := &domain.NavigationPath{
		ID:          id,
		StartNodeID: start,
		EndNodeID:   end,
		Waypoints: []domain.Waypoint{
			{SequenceNumber: 0, Embedding: vec, Heading: 90, TurnType: domain.TurnStraight},
			{SequenceNumber: 1, Embedding: vec, Heading: 180, TurnType: domain.TurnRight, IsDecisionPoint: true},
			{SequenceNumber: 2, Embedding: vec, Heading: 180, TurnType: domain.TurnStraight, LandmarkDescription: "the lifts"},
		},
		EstimatedDistance: 12.6,
		EstimatedSteps:    18,
		Dimensions:        len(vec),
		CreatedAt:         time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, rt.Paths.Save(context.Background(), path))
	return path
}

var errNoFrame = errors.New("no frame")
