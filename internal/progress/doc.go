// Package progress subscribes to the backend's per-job progress stream.
//
// Each running job gets one subscription keyed by its request id. The stream
// is newline-delimited JSON; events arrive in stream order and are dispatched
// to the caller's handler on a background goroutine. The stream is advisory:
// transport drops close the subscription silently because the processing
// request itself is authoritative for job outcome. Subscriptions close
// exactly once, whichever of done/error/job-completion happens first.
package progress
