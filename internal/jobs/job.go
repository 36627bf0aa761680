package jobs

import (
	"time"

	"atelier/internal/artifacts"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

var terminalStatuses = map[Status]struct{}{
	StatusDone:      {},
	StatusError:     {},
	StatusCancelled: {},
}

// IsTerminal reports whether a status is final.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Job represents one submitted input asset and its processing/publish
// lifecycle.
type Job struct {
	ID           int64
	Input        Input
	Options      Options
	Status       Status
	RequestID    string
	StepOrder    []Step
	StepStatus   map[Step]StepState
	Result       *artifacts.Set
	ErrorMessage string
	Publish      PublishState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New constructs a queued job with an options snapshot.
func New(id int64, input Input, opts Options) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        id,
		Input:     input,
		Options:   opts,
		Status:    StatusQueued,
		Publish:   PublishState{Status: PublishIdle},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether the job reached a final state.
func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Start moves a queued job to running. The request id binds the job to its
// progress stream and cancellation target. Step tracking is initialized with
// every step pending and the first step optimistically started so display is
// correct even when the stream subscription lags the backend.
func (j *Job) Start(requestID string) {
	if j.Status != StatusQueued {
		return
	}
	j.Status = StatusRunning
	j.RequestID = requestID
	j.StepOrder = StepsFor(j.Options)
	j.StepStatus = make(map[Step]StepState, len(j.StepOrder))
	for _, step := range j.StepOrder {
		j.StepStatus[step] = StepPending
	}
	if len(j.StepOrder) > 0 {
		j.StepStatus[j.StepOrder[0]] = StepStarted
	}
	j.touch()
}

// ApplyStep records a stage-status update. Unknown step keys are ignored for
// forward compatibility with newer backends.
func (j *Job) ApplyStep(step Step, state StepState) {
	if j.Status != StatusRunning {
		return
	}
	if _, ok := j.StepStatus[step]; !ok {
		return
	}
	j.StepStatus[step] = state
	j.touch()
}

// PromoteFirstStep marks the first step started if it is still pending.
// Applied on stream connect acknowledgements to cover pushes that happened
// before the subscription was established.
func (j *Job) PromoteFirstStep() {
	if j.Status != StatusRunning || len(j.StepOrder) == 0 {
		return
	}
	first := j.StepOrder[0]
	if j.StepStatus[first] == StepPending {
		j.StepStatus[first] = StepStarted
		j.touch()
	}
}

// CompleteSteps forces every step not yet done to done.
func (j *Job) CompleteSteps() {
	for _, step := range j.StepOrder {
		if j.StepStatus[step] != StepDone {
			j.StepStatus[step] = StepDone
		}
	}
	j.touch()
}

// AllStepsDone reports whether every tracked step finished.
func (j *Job) AllStepsDone() bool {
	for _, step := range j.StepOrder {
		if j.StepStatus[step] != StepDone {
			return false
		}
	}
	return true
}

// MarkDone stores the parsed artifact set and finishes the job. All steps are
// forced done so the displayed progress matches the terminal state.
func (j *Job) MarkDone(result *artifacts.Set) {
	if j.IsTerminal() {
		return
	}
	j.CompleteSteps()
	j.Status = StatusDone
	j.Result = result
	j.ErrorMessage = ""
	j.touch()
}

// MarkError finishes the job with a failure message.
func (j *Job) MarkError(message string) {
	if j.IsTerminal() {
		return
	}
	j.Status = StatusError
	j.ErrorMessage = message
	j.touch()
}

// MarkCancelled finishes the job as cancelled. Idempotent.
func (j *Job) MarkCancelled() {
	if j.IsTerminal() {
		return
	}
	j.Status = StatusCancelled
	j.touch()
}

// Clone returns a deep copy safe to hand outside the registry lock.
func (j *Job) Clone() *Job {
	cp := *j
	if j.StepOrder != nil {
		cp.StepOrder = make([]Step, len(j.StepOrder))
		copy(cp.StepOrder, j.StepOrder)
	}
	if j.StepStatus != nil {
		cp.StepStatus = make(map[Step]StepState, len(j.StepStatus))
		for k, v := range j.StepStatus {
			cp.StepStatus[k] = v
		}
	}
	return &cp
}

func (j *Job) touch() {
	j.UpdatedAt = time.Now().UTC()
}
