package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
	"github.com/custodia-labs/sightline/internal/core/ports/driving"
)

// Ensure PathService implements the interface.
var _ driving.PathService = (*PathService)(nil)

// PathService manages recorded navigation paths.
type PathService struct {
	store driven.PathStore
}

// NewPathService creates a new path service.
func NewPathService(store driven.PathStore) *PathService {
	return &PathService{store: store}
}

// List returns summaries of all recorded paths.
func (s *PathService) List(ctx context.Context) ([]domain.PathSummary, error) {
	return s.store.List(ctx)
}

// Get retrieves a path by ID.
func (s *PathService) Get(ctx context.Context, id string) (*domain.NavigationPath, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: path id is required", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// FindRoute returns the newest path between two nodes.
func (s *PathService) FindRoute(ctx context.Context, startNodeID, endNodeID string) (*domain.NavigationPath, error) {
	if startNodeID == "" || endNodeID == "" {
		return nil, fmt.Errorf("%w: start and end node are required", domain.ErrInvalidInput)
	}
	path, err := s.store.FindByNodes(ctx, startNodeID, endNodeID)
	if err != nil {
		return nil, fmt.Errorf("find route %s -> %s: %w", startNodeID, endNodeID, err)
	}
	return path, nil
}

// Delete removes a path.
func (s *PathService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: path id is required", domain.ErrInvalidInput)
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}
