package driving

import (
	"context"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// PathService manages recorded navigation paths.
type PathService interface {
	// List returns summaries of all recorded paths.
	List(ctx context.Context) ([]domain.PathSummary, error)

	// Get retrieves a path by ID.
	Get(ctx context.Context, id string) (*domain.NavigationPath, error)

	// FindRoute returns the newest path between two nodes.
	FindRoute(ctx context.Context, startNodeID, endNodeID string) (*domain.NavigationPath, error)

	// Delete removes a path.
	Delete(ctx context.Context, id string) error
}
