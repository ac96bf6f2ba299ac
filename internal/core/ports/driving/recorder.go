package driving

import (
	"context"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// RecorderState is the lifecycle state of a path recording.
type RecorderState string

// Recorder states.
const (
	RecorderIdle       RecorderState = "idle"
	RecorderRecording  RecorderState = "recording"
	RecorderStopped    RecorderState = "stopped"
	RecorderAborted    RecorderState = "aborted"
	RecorderProcessing RecorderState = "batch_processing"
	RecorderFiltering  RecorderState = "filtering"
	RecorderPersisted  RecorderState = "persisted"
	RecorderFailed     RecorderState = "failed"
	RecorderSaveFailed RecorderState = "save_failed"
)

// RecorderService records a walked route as a navigation path.
type RecorderService interface {
	// Start begins a recording between two nodes.
	Start(startNodeID, endNodeID string) error

	// Tick takes one capture at the given heading.
	Tick(ctx context.Context, heading float64) (*domain.RawCapture, error)

	// Run ticks on the recording interval until Stop, ArriveAtDestination,
	// Abort or ctx cancellation.
	Run(ctx context.Context, headings HeadingSource) error

	// Stop ends the capture phase.
	Stop() error

	// ArriveAtDestination ends the capture phase at the end node.
	ArriveAtDestination() error

	// Abort discards all captures and deletes their frames.
	Abort(ctx context.Context) error

	// Finish embeds, compacts and persists the recorded path.
	Finish(ctx context.Context) (*domain.NavigationPath, error)

	// RetrySave persists a path whose earlier save failed.
	RetrySave(ctx context.Context) (*domain.NavigationPath, error)

	// State returns the current lifecycle state.
	State() RecorderState

	// Captures returns a copy of the raw captures taken so far.
	Captures() []domain.RawCapture
}
