// Package preflight provides readiness checks for the processing backend and
// the filesystem paths atelier depends on.
//
// The CLI runs RunAll before submitting a batch: a wrong backend URL, a full
// staging disk, or a disconnected marketplace account should fail fast
// instead of surfacing halfway through a batch.
package preflight
