package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks input rejected before any job was created.
	ErrValidation = errors.New("validation error")
	// ErrRequest marks a failed remote call (processing, publish, abort).
	ErrRequest = errors.New("request error")
	// ErrCancelled marks a job stopped on user request. Not a failure.
	ErrCancelled = errors.New("cancelled")
	// ErrParse marks a malformed result bundle from an otherwise
	// successful processing call.
	ErrParse = errors.New("parse error")
	// ErrStream marks a progress-stream transport issue. Streams are
	// advisory, so this never escalates to a job failure.
	ErrStream = errors.New("stream error")
	// ErrAuthRequired marks a publish call rejected because the
	// marketplace session is not authenticated.
	ErrAuthRequired = errors.New("authentication required")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrRequest
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTerminalFailure reports whether an error should move the owning job to
// the error state. Cancellation and stream noise are excluded.
func IsTerminalFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrStream) {
		return false
	}
	return true
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
