// Package etsy is the HTTP client for the marketplace gateway.
//
// Draft listings are created with a single multipart request carrying the
// processed digital file, up to nine mockup photos, an optional preview
// video, and the listing metadata fields. The gateway signals a missing
// marketplace session with a 401 status, surfaced here as the typed
// authentication error so callers never retry it blindly.
package etsy
