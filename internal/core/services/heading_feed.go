package services

import (
	"context"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/core/ports/driving"
)

// Ensure HeadingFeed implements the interface.
var _ driving.HeadingSource = (*HeadingFeed)(nil)

// HeadingFeed holds the latest compass heading for concurrent readers.
// One goroutine writes (Run or Push); any number read.
//
// With a window above one, the reported heading is the circular mean of
// the last readings, which damps magnetometer jitter without the 359/0
// wrap error a plain mean would have.
type HeadingFeed struct {
	mu      sync.RWMutex
	window  []float64
	size    int
	next    int
	filled  int
	heading float64
	ok      bool
}

// NewHeadingFeed creates a feed smoothing over the last window readings.
func NewHeadingFeed(window int) *HeadingFeed {
	if window < 1 {
		window = 1
	}
	return &HeadingFeed{
		window: make([]float64, window),
		size:   window,
	}
}

// Run consumes the compass until ctx is done or the feed closes.
// Returns domain.ErrSensorUnavailable if the compass cannot be opened.
func (f *HeadingFeed) Run(ctx context.Context, compass driven.Compass) error {
	if compass == nil {
		return domain.ErrSensorUnavailable
	}
	ch, err := compass.Headings(ctx)
	if err != nil {
		return fmt.Errorf("open compass: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case h, ok := <-ch:
			if !ok {
				return nil
			}
			f.Push(h)
		}
	}
}

// Push records a reading. Non-finite readings are ignored.
func (f *HeadingFeed) Push(h float64) {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.window[f.next] = domain.Normalize(h) * math.Pi / 180
	f.next = (f.next + 1) % f.size
	if f.filled < f.size {
		f.filled++
	}

	mean := stat.CircularMean(f.window[:f.filled], nil)
	f.heading = domain.Normalize(mean * 180 / math.Pi)
	f.ok = true
}

// Heading returns the smoothed heading and whether any reading has arrived.
func (f *HeadingFeed) Heading() (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.heading, f.ok
}

