// Package tui provides the navigation dashboard for sightline.
// It implements a driving adapter following hexagonal architecture
// principles: key presses become calls on the navigation service and
// navigator announcements become Bubbletea messages.
package tui

import (
	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driving"
)

// Ports aggregates what the TUI needs to run one navigation session.
type Ports struct {
	// Navigation runs the session.
	Navigation driving.NavigationService

	// Path is the route to follow.
	Path *domain.NavigationPath

	// Headings is optional; without it orientation is skipped.
	Headings driving.HeadingSource
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Navigation == nil {
		return ErrMissingNavigationService
	}
	if p.Path == nil {
		return ErrMissingPath
	}
	return nil
}
