package progress

import "strings"

// EventType discriminates progress stream events.
type EventType string

const (
	// EventConnected acknowledges the stream is established.
	EventConnected EventType = "connected"
	// EventStarted is the backend's global start acknowledgement.
	EventStarted EventType = "started"
	// EventStep carries one stage-status update.
	EventStep EventType = "step"
	// EventDone signals every stage finished; the stream closes after it.
	EventDone EventType = "done"
	// EventError signals a stage failure or a cancellation marker.
	EventError EventType = "error"
)

// cancelMarker is the step value the backend reports when a run stopped
// because of a cancellation request.
const cancelMarker = "cancelled"

// Event is one decoded progress stream message.
type Event struct {
	Type   EventType `json:"event"`
	Step   string    `json:"step,omitempty"`
	Status string    `json:"status,omitempty"`
}

// IsCancellation reports whether an error event is the cancellation marker.
// Cancellation is handled by the direct cancel path, so the stream closes
// silently on it.
func (e Event) IsCancellation() bool {
	return e.Type == EventError && strings.EqualFold(strings.TrimSpace(e.Step), cancelMarker)
}

// Closing reports whether the event ends the stream.
func (e Event) Closing() bool {
	return e.Type == EventDone || e.Type == EventError
}
