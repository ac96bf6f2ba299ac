package driving

import (
	"context"

	"github.com/custodia-labs/sightline/internal/core/domain"
)

// LocalizationService determines the user's location from a 360° scan.
type LocalizationService interface {
	// Scan guides the user through a full turn and votes on the samples.
	Scan(ctx context.Context, headings HeadingSource) (domain.LocalizationResult, error)

	// Abort ends a running scan early and votes on what was collected.
	Abort()
}
