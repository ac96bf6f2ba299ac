// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ImageEmbedder: Turns a camera frame into an embedding (gateway)
//   - Camera: Captures the current frame as a transient reference
//   - FrameStore: Loads and deletes transient frames
//   - PathStore: Navigation path persistence
//   - LocationStore: Reference embeddings for known nodes
//   - GuidanceSink: Delivers spoken or displayed instructions
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Compass: Heading feed. Without it, orientation and turn detection are skipped.
//   - PersonDetector: Gates people removal before embedding recorded frames.
//   - StepCounter: Pedometer. Without it, distances are zero.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
