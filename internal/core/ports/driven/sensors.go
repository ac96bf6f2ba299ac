package driven

import (
	"context"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// Camera captures the current view.
type Camera interface {
	// Capture grabs the current frame and returns a transient reference to it.
	// Returns domain.ErrSensorUnavailable when no frame can be produced.
	Capture(ctx context.Context) (domain.ImageRef, error)
}

// FrameStore holds transient frames between capture and embedding.
type FrameStore interface {
	// Load returns the encoded image for ref.
	Load(ctx context.Context, ref domain.ImageRef) ([]byte, error)

	// Delete removes the frame. Deleting a missing frame is not an error.
	Delete(ctx context.Context, ref domain.ImageRef) error
}

// Compass streams device headings in degrees.
type Compass interface {
	// Headings returns a channel of readings that closes when ctx is done.
	// Returns domain.ErrSensorUnavailable when the device has no compass.
	Headings(ctx context.Context) (<-chan float64, error)
}

// StepCounter reports cumulative steps since it was created.
type StepCounter interface {
	Steps() int
}
