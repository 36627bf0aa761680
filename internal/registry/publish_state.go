package registry

import (
	"atelier/internal/jobs"
	"atelier/internal/logging"
)

// BeginPublish moves a job's publish sub-state to pending and returns a
// snapshot for the coordinator. The single-flight guard rejects a second
// attempt while a prior one is pending, without side effects. Publishing is
// only permitted once the job itself is done; the job's own status is never
// touched here.
func (r *Registry) BeginPublish(id int64) (*jobs.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if job.Status != jobs.StatusDone {
		return nil, ErrNotDone
	}
	if job.Publish.Status == jobs.PublishPending {
		return nil, ErrPublishInFlight
	}

	job.Publish = jobs.PublishState{Status: jobs.PublishPending}
	r.signalLocked()
	return job.Clone(), nil
}

// CompletePublish records the outcome of a publish attempt started with
// BeginPublish.
func (r *Registry) CompletePublish(id int64, listingID int64, publishErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	if publishErr != nil {
		job.Publish = jobs.PublishState{Status: jobs.PublishError, Error: publishErr.Error()}
	} else {
		job.Publish = jobs.PublishState{Status: jobs.PublishDone, ListingID: listingID}
	}
	r.logger.Info("publish finished",
		logging.Int64(logging.FieldJobID, id),
		logging.String("publish_status", string(job.Publish.Status)))
	r.signalLocked()
}
