// Package history persists published listings in a local SQLite database so
// operators can review past marketplace publishes across sessions.
package history
