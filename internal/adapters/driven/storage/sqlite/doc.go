// Package sqlite provides a SQLite-based implementation of the path and
// location stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation to the embedded boards the
// navigator runs on. Both stores share a single database connection:
//
//   - PathStore: recorded paths with their waypoint embeddings
//   - LocationStore: named nodes and their reference views
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Embeddings are stored as little-endian float32 BLOBs.
//
// # Data Location
//
// By default, the database is stored at ~/.sightline/data/navigation.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. A path and its waypoints are written in one transaction.
package sqlite
