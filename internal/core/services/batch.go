package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/logger"
)

// BatchReport summarises one batch embedding run.
type BatchReport struct {
	Captures      int
	Embedded      int
	Dropped       int
	PeopleRemoved int
}

// BatchEmbedder turns raw captures into waypoints after recording ends.
type BatchEmbedder struct {
	embedder     driven.ImageEmbedder
	frames       driven.FrameStore
	detector     driven.PersonDetector
	concurrency  int
	strideLength float64
	removePeople bool
}

// NewBatchEmbedder creates a batch embedder. detector may be nil.
func NewBatchEmbedder(
	embedder driven.ImageEmbedder,
	frames driven.FrameStore,
	detector driven.PersonDetector,
	settings domain.RecordingSettings,
) *BatchEmbedder {
	concurrency := settings.BatchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchEmbedder{
		embedder:     embedder,
		frames:       frames,
		detector:     detector,
		concurrency:  concurrency,
		strideLength: settings.StrideLength,
		removePeople: settings.RemovePeople,
	}
}

// EmbedCaptures embeds every capture and returns waypoints in sequence order.
// A capture whose frame cannot be loaded or embedded is dropped and logged.
// Every transient frame is deleted, whether or not embedding succeeded.
// Embeddings whose dimension differs from the first one are dropped.
func (b *BatchEmbedder) EmbedCaptures(ctx context.Context, captures []domain.RawCapture) ([]domain.Waypoint, BatchReport, error) {
	report := BatchReport{Captures: len(captures)}
	results := make([]*domain.Waypoint, len(captures))
	var peopleRemoved atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := range captures {
		c := captures[i]
		g.Go(func() error {
			defer b.release(ctx, c.ImageRef)

			if err := gctx.Err(); err != nil {
				return err
			}

			wp, removed, err := b.embedOne(gctx, &c)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("batch: dropping capture %d: %v", c.SequenceNumber, err)
				return nil
			}
			if removed {
				peopleRemoved.Add(1)
			}
			results[i] = wp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, report, fmt.Errorf("embed captures: %w", err)
	}

	waypoints := make([]domain.Waypoint, 0, len(captures))
	dim := 0
	for _, wp := range results {
		if wp == nil {
			continue
		}
		if dim == 0 {
			dim = len(wp.Embedding)
		}
		if len(wp.Embedding) != dim {
			logger.Warn("batch: dropping capture %d: %v", wp.SequenceNumber,
				&domain.DimensionMismatchError{Expected: dim, Actual: len(wp.Embedding)})
			continue
		}
		waypoints = append(waypoints, *wp)
	}

	report.Embedded = len(waypoints)
	report.Dropped = report.Captures - report.Embedded
	report.PeopleRemoved = int(peopleRemoved.Load())
	return waypoints, report, nil
}

func (b *BatchEmbedder) embedOne(ctx context.Context, c *domain.RawCapture) (*domain.Waypoint, bool, error) {
	img, err := b.frames.Load(ctx, c.ImageRef)
	if err != nil {
		return nil, false, fmt.Errorf("load frame: %w", err)
	}

	mode := b.mode(ctx, img, c.SequenceNumber)
	emb, err := b.embedder.Embed(ctx, img, mode)
	if err != nil {
		return nil, false, fmt.Errorf("embed frame: %w", err)
	}
	if len(emb) == 0 {
		return nil, false, fmt.Errorf("%w: empty embedding", domain.ErrEmbeddingService)
	}

	return &domain.Waypoint{
		SequenceNumber:       c.SequenceNumber,
		Embedding:            emb,
		Heading:              c.Heading,
		HeadingChange:        c.HeadingChange,
		TurnType:             c.TurnType,
		IsDecisionPoint:      c.IsDecisionPoint,
		DistanceFromPrevious: float64(c.Steps) * b.strideLength,
	}, mode == driven.EmbedRemovePeople, nil
}

// mode picks people removal only when asked for and, if a detector is
// wired, only when it actually sees someone.
func (b *BatchEmbedder) mode(ctx context.Context, img []byte, seq int) driven.EmbedMode {
	if !b.removePeople {
		return driven.EmbedStandard
	}
	if b.detector == nil {
		return driven.EmbedRemovePeople
	}
	det, err := b.detector.Detect(ctx, img)
	if err != nil {
		logger.Warn("batch: person detection failed for capture %d: %v", seq, err)
		return driven.EmbedStandard
	}
	if det.PeopleDetected {
		logger.Debug("batch: %d people in capture %d", det.PeopleCount, seq)
		return driven.EmbedRemovePeople
	}
	return driven.EmbedStandard
}

func (b *BatchEmbedder) release(ctx context.Context, ref domain.ImageRef) {
	if err := b.frames.Delete(context.WithoutCancel(ctx), ref); err != nil {
		logger.Warn("batch: delete frame %s: %v", ref, err)
	}
}
