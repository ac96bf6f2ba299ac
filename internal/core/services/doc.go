// Package services implements the navigation engine's core logic.
//
// Services depend only on domain types and driven ports. They implement
// the driving ports consumed by the CLI and TUI:
//
//   - Recorder: two-phase path recording (capture, then embed and compact)
//   - Localizer: 360° dwell-gated scan with a majority vote
//   - Navigator: turn-by-turn guidance along a recorded path
//   - PathService: path catalogue
//   - SettingsService: tunables backed by the config store
//
// The pure pieces (CompactWaypoints, ScanGate, Voter, Session) take time
// as an argument and do no I/O, so they can be tested without sensors.
package services
