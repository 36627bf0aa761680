// Package main hosts the atelier CLI entrypoint and command graph.
//
// The Cobra-based command tree submits batches to the processing backend,
// renders live per-step progress, publishes completed results as marketplace
// drafts, and provides configuration scaffolding. It centralizes config
// resolution and logger setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
