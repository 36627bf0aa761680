// Package registry orchestrates batch processing jobs.
//
// The Registry owns the job collection, the FIFO submission queue, and the
// running-job bookkeeping. Admission flows through one recomputation routine
// invoked after every submit, completion, error, and cancellation, keeping
// the running count at or below the configured ceiling at every observation
// point. Each admitted job runs on its own goroutine: it opens a progress
// subscription, issues the processing request, and hands the returned bundle
// to the parser; all state mutations funnel back through a single locked
// dispatch point so partially-ordered external events (stream pushes, HTTP
// completions, user cancellation) apply deterministically.
//
// One job's failure never touches its siblings, remote aborts are
// best-effort with local cancellation authoritative, and the processing
// response always outranks the advisory progress stream.
package registry
