package driven

import "github.com/custodia-labs/sightline/internal/core/domain"

// GuidanceSink delivers instructions to the user.
// Announce must not block the caller.
type GuidanceSink interface {
	Announce(text string)
}

// StatusObserver receives navigation snapshots after every state change.
// Optional: GuidanceSinks that also render status implement it.
type StatusObserver interface {
	Observe(snapshot domain.NavigationSnapshot)
}
