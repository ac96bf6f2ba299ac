package driven

import (
	"context"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// PathStore persists navigation paths.
type PathStore interface {
	// Save stores the path and all of its waypoints atomically.
	// Either everything is written or nothing is.
	Save(ctx context.Context, path *domain.NavigationPath) error

	// Get retrieves a path with its waypoints.
	// Returns domain.ErrNotFound if the path does not exist.
	Get(ctx context.Context, id string) (*domain.NavigationPath, error)

	// List returns summaries of all paths, newest first.
	List(ctx context.Context) ([]domain.PathSummary, error)

	// FindByNodes returns the newest path from start to end.
	// Returns domain.ErrNotFound if there is none.
	FindByNodes(ctx context.Context, startNodeID, endNodeID string) (*domain.NavigationPath, error)

	// Delete removes a path and its waypoints.
	Delete(ctx context.Context, id string) error
}

// LocationStore holds the reference embeddings used for localization.
type LocationStore interface {
	// SaveLocation creates or renames a node.
	SaveLocation(ctx context.Context, loc domain.Location) error

	// AddEmbedding appends a reference view for an existing node.
	// Returns domain.ErrNotFound if the node does not exist.
	AddEmbedding(ctx context.Context, nodeID string, embedding []float32) error

	// ListLocations returns all known nodes.
	ListLocations(ctx context.Context) ([]domain.Location, error)

	// LoadLocationEmbeddings returns every reference view for a node.
	LoadLocationEmbeddings(ctx context.Context, nodeID string) ([]domain.LocationEmbedding, error)
}
