package registry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"atelier/internal/artifacts"
	"atelier/internal/jobs"
	"atelier/internal/logging"
	"atelier/internal/progress"
	"atelier/internal/services"
	"atelier/internal/services/studio"
)

// runJob drives one admitted job to a terminal state: subscribe to progress,
// issue the processing request, decode the bundle, and report the outcome
// back through the single finish path. The HTTP response is authoritative for
// the outcome; the stream only feeds step display.
func (r *Registry) runJob(ctx context.Context, id int64, requestID string, input jobs.Input, opts jobs.Options, payload []byte) {
	defer r.wg.Done()

	sub, err := r.streams.Open(ctx, requestID, func(event progress.Event) {
		r.applyProgress(id, event)
	})
	if err != nil {
		// Advisory only: the job proceeds without live step updates.
		r.logger.Debug("progress stream unavailable",
			logging.Int64(logging.FieldJobID, id),
			logging.Error(err))
	} else {
		r.attachSubscription(id, sub)
	}

	bundle, err := r.processor.Process(ctx, studio.ProcessRequest{
		RequestID: requestID,
		FileName:  input.Name,
		MediaType: input.MediaType,
		Payload:   payload,
		DPI:       opts.DPI,
		Enhance:   opts.Enhance,
		Upscale:   opts.Upscale,
		Mockups:   opts.Mockups,
		Video:     opts.Video,
		Texts:     opts.Texts,
	})
	if sub != nil {
		sub.Close()
	}

	if err != nil {
		if errors.Is(err, services.ErrCancelled) || ctx.Err() != nil {
			r.finish(id, jobs.StatusCancelled, "", nil)
		} else {
			r.finish(id, jobs.StatusError, err.Error(), nil)
		}
		return
	}

	set, err := r.parser.Parse(fmt.Sprintf("job-%d", id), bundle.Data)
	if err != nil {
		r.finish(id, jobs.StatusError, err.Error(), nil)
		return
	}
	r.finish(id, jobs.StatusDone, "", set)
}

// attachSubscription records the live subscription so cancellation can close
// it. If the job went terminal while the stream was connecting, the
// subscription is closed immediately.
func (r *Registry) attachSubscription(id int64, sub io.Closer) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	handle := r.handles[id]
	if ok && !job.IsTerminal() && handle != nil {
		handle.sub = sub
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	sub.Close()
}

// finish applies the terminal outcome and re-runs admission so a freed slot
// can admit the next queued job. When the job already reached a terminal
// state through direct cancellation, a late-arriving result is released
// rather than applied.
func (r *Registry) finish(id int64, status jobs.Status, message string, set *artifacts.Set) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || job.IsTerminal() {
		if handle := r.handles[id]; handle != nil {
			handle.cancel()
			delete(r.handles, id)
		}
		delete(r.payloads, id)
		r.admitLocked()
		r.signalLocked()
		r.mu.Unlock()
		set.Release()
		return
	}

	switch status {
	case jobs.StatusDone:
		job.MarkDone(set)
	case jobs.StatusCancelled:
		job.MarkCancelled()
	default:
		job.MarkError(message)
	}

	if handle := r.handles[id]; handle != nil {
		handle.cancel()
		delete(r.handles, id)
	}
	delete(r.payloads, id)

	r.logger.Info("job finished",
		logging.Int64(logging.FieldJobID, id),
		logging.String("status", string(job.Status)),
		logging.String("error", job.ErrorMessage))

	r.admitLocked()
	r.signalLocked()
	r.mu.Unlock()
}

// applyProgress dispatches one stream event onto the owning job. Events for
// unknown or terminal jobs are ignored; the stream never decides outcomes.
func (r *Registry) applyProgress(id int64, event progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status != jobs.StatusRunning {
		return
	}

	switch event.Type {
	case progress.EventConnected, progress.EventStarted:
		job.PromoteFirstStep()
	case progress.EventStep:
		state, ok := jobs.ParseStepState(event.Status)
		if !ok {
			return
		}
		job.ApplyStep(jobs.Step(event.Step), state)
	case progress.EventDone:
		job.CompleteSteps()
	case progress.EventError:
		if event.IsCancellation() {
			return
		}
		r.logger.Warn("stage error reported by stream",
			logging.Int64(logging.FieldJobID, id),
			logging.String(logging.FieldStep, event.Step))
	default:
		return
	}
	r.signalLocked()
}
