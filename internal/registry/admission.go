package registry

import (
	"context"

	"github.com/google/uuid"

	"atelier/internal/jobs"
	"atelier/internal/logging"
)

// Capacity is the pure admission-control function: how many queued jobs may
// start given the current running count and the configured ceiling.
func Capacity(running, ceiling int) int {
	if ceiling < 0 {
		ceiling = 0
	}
	capacity := ceiling - running
	if capacity < 0 {
		return 0
	}
	return capacity
}

// admitLocked starts queued jobs in FIFO submission order while capacity
// remains. It is the single entry point for admission, invoked after every
// submit, completion, error, and cancellation; the running count is always
// recomputed at the moment of the check so racing completions cannot
// over-admit.
func (r *Registry) admitLocked() {
	capacity := Capacity(r.countRunningLocked(), r.cfg.Workflow.MaxRunning)
	for capacity > 0 && len(r.queue) > 0 {
		id := r.queue[0]
		r.queue = r.queue[1:]
		job, ok := r.jobs[id]
		if !ok || job.Status != jobs.StatusQueued {
			continue
		}

		requestID := uuid.NewString()
		job.Start(requestID)

		runCtx, cancel := context.WithCancel(context.Background())
		r.handles[id] = &runHandle{cancel: cancel}

		payload := r.payloads[id]
		r.wg.Add(1)
		go r.runJob(runCtx, id, requestID, job.Input, job.Options, payload)

		r.logger.Info("job admitted",
			logging.Int64(logging.FieldJobID, id),
			logging.String(logging.FieldRequestID, requestID))
		capacity--
	}
}
