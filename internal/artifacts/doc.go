// Package artifacts decodes a completed job's result bundle into named, typed
// artifacts.
//
// The bundle is a fixed-layout ZIP: a required processed primary image, zero
// or more mockup renders, an optional preview video, optional text metadata,
// and an optional manifest. Binary entries are extracted under a per-job
// staging directory and surfaced as handles with byte lengths; Set.Release
// frees everything exactly once. Any deviation from the layout that loses the
// primary image is a typed parse error rather than best-effort guessing.
package artifacts
