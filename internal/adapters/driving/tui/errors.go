package tui

import "errors"

// ErrMissingNavigationService is returned when no navigator is provided.
var ErrMissingNavigationService = errors.New("tui: navigation service is required")

// ErrMissingPath is returned when no path is provided.
var ErrMissingPath = errors.New("tui: navigation path is required")
