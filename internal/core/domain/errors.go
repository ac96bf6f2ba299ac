package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent navigation failures.
// Adapters wrap them with %w so callers can branch with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSensorUnavailable indicates the camera or compass cannot be read.
	ErrSensorUnavailable = errors.New("sensor unavailable")

	// ErrEmbeddingService indicates the embedding model failed or timed out.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrDimensionMismatch indicates two embeddings of different length were compared.
	// Use errors.As with *DimensionMismatchError for the lengths.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStorage indicates a persistence write or read failed.
	ErrStorage = errors.New("storage error")

	// ErrInsufficientData indicates there was nothing to work with:
	// a recording that produced zero waypoints, or a scan with zero samples.
	ErrInsufficientData = errors.New("insufficient data")

	// Session Errors.

	// ErrSessionActive indicates a recording or navigation session is already running.
	ErrSessionActive = errors.New("session already active")

	// ErrInvalidState indicates an operation is not allowed in the current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrBusy indicates a tick arrived while the previous one was still running.
	ErrBusy = errors.New("tick in progress")
)

// DimensionMismatchError reports the lengths of two incompatible embeddings.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrDimensionMismatch, e.Expected, e.Actual)
}

// Is lets errors.Is match ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
