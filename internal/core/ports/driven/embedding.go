package driven

import (
	"context"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// EmbedMode selects how the embedding service treats a frame.
type EmbedMode int

const (
	// EmbedStandard embeds the frame as-is.
	EmbedStandard EmbedMode = iota
	// EmbedRemovePeople inpaints detected people before embedding.
	// Used for recorded waypoints so transient crowds don't pollute the path.
	EmbedRemovePeople
	// EmbedRealtime favours latency over preprocessing.
	// Used while navigating and scanning.
	EmbedRealtime
)

// String returns the string representation.
func (m EmbedMode) String() string {
	switch m {
	case EmbedRemovePeople:
		return "remove_people"
	case EmbedRealtime:
		return "realtime"
	default:
		return "standard"
	}
}

// ImageEmbedder generates embeddings for camera frames.
// All embeddings from one embedder share the same dimension.
type ImageEmbedder interface {
	// Embed generates an embedding for a single encoded image.
	// Failures wrap domain.ErrEmbeddingService.
	Embed(ctx context.Context, image []byte, mode EmbedMode) ([]float32, error)

	// Dimensions returns the embedding vector size, 0 if not yet known.
	Dimensions() int

	// ModelName returns the name of the model serving embeddings.
	ModelName() string

	// Ping checks the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// PersonDetector reports whether people are visible in a frame.
type PersonDetector interface {
	Detect(ctx context.Context, image []byte) (domain.Detection, error)
}
