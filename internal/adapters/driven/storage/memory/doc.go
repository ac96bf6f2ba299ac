// Package memory provides in-memory implementations of the storage ports.
//
// They back tests and --ephemeral runs. Nothing survives the process.
package memory
