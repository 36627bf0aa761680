package jobs

// PublishStatus tracks the marketplace publish sub-state. Publishing is an
// independent axis from processing: it never blocks or reverses the job's own
// terminal state.
type PublishStatus string

const (
	PublishIdle    PublishStatus = "idle"
	PublishPending PublishStatus = "pending"
	PublishDone    PublishStatus = "done"
	PublishError   PublishStatus = "error"
)

// PublishState records the outcome of the optional publish step.
type PublishState struct {
	Status    PublishStatus
	ListingID int64
	Error     string
}
