// Package messages defines Bubbletea message types for the TUI.
// Messages represent events that flow from the navigator into the
// Elm architecture.
package messages

import (
	"github.com/custodia-labs/sightline/internal/core/domain"
)

// Announced carries an instruction spoken to the user.
type Announced struct {
	Text string
}

// SnapshotUpdated carries the navigation state after a transition.
type SnapshotUpdated struct {
	Snapshot domain.NavigationSnapshot
}

// NavigationDone is sent when the navigation loop returns.
type NavigationDone struct {
	Snapshot domain.NavigationSnapshot
	Err      error
}

// Tick drives the reorient countdown.
type Tick struct{}
