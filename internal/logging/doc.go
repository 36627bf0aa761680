// Package logging wires log/slog for the CLI and library packages.
//
// It builds console or JSON handlers from config, appends to a per-install log
// file when a log directory is configured, and exposes small attr helpers plus
// the shared field-name constants so job and request correlation ids appear
// under the same keys everywhere.
package logging
