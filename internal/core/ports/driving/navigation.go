package driving

import (
	"context"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// NavigationService guides the user along a recorded path.
type NavigationService interface {
	// Navigate runs a session until the destination is reached,
	// Stop is called or ctx is cancelled.
	Navigate(ctx context.Context, path *domain.NavigationPath, headings HeadingSource) (domain.NavigationSnapshot, error)

	// Resume leaves the reorienting state immediately.
	Resume()

	// Stop ends the running session.
	Stop()

	// Snapshot returns the latest session state.
	Snapshot() domain.NavigationSnapshot
}
