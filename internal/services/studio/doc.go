// Package studio is the HTTP client for the image-processing backend.
//
// One multipart request per job carries the input asset, the options
// snapshot, and the request correlation id; the response is the result
// bundle with a suggested filename. A distinct status code (499) signals
// "cancelled" rather than "failed", and the abort endpoint is best-effort
// by contract.
package studio
