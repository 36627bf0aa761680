// Package publish maps completed jobs onto marketplace draft listings and
// coordinates the idempotent fan-out: each job is acquired single-flight from
// the registry, its artifacts are uploaded as one draft, and the outcome is
// recorded on the job's publish sub-state and in the local history store.
package publish
