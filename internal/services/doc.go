// Package services holds the error taxonomy and context helpers shared by the
// remote-facing clients.
//
// Every failure surfaced to a job is tagged with one of the exported sentinel
// errors so the registry can classify outcomes without string matching:
// validation failures never create jobs, cancellation is a distinct terminal
// outcome rather than a failure, parse failures attribute a bad bundle to the
// owning job, and stream errors stay advisory. Context helpers carry job and
// request correlation identifiers into client logs.
package services
