// Package jobs defines the job model: input validation, the options snapshot,
// the status state machine, per-step progress tracking, and the publish
// sub-state.
//
// Transitions are methods on Job so ordering and idempotency are enforceable
// and testable without timing dependencies; the registry owns locking and
// calls them from a single dispatch point. Treat this package as the single
// source of truth for lifecycle semantics: when adding steps or statuses,
// update the registry and the progress decoder alongside.
package jobs
