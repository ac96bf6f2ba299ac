// Package domain defines the core entities of the navigation engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawCapture: A frame reference plus heading taken while recording
//   - Waypoint: An embedded, compacted point along a recorded route
//   - NavigationPath: The ordered waypoints between two nodes
//   - LocalizationResult: The outcome of a 360° scan vote
//   - NavigationSnapshot: Read-only view of a running navigation session
//
// Heading arithmetic lives here too, since every other layer depends on it.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
