package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"atelier/internal/artifacts"
	"atelier/internal/config"
	"atelier/internal/jobs"
	"atelier/internal/logging"
	"atelier/internal/progress"
	"atelier/internal/services/studio"
)

var (
	// ErrNotFound marks operations addressing an unknown job id.
	ErrNotFound = errors.New("job not found")
	// ErrNotTerminal marks removal of a job that is still queued or running.
	ErrNotTerminal = errors.New("job not terminal")
	// ErrNotDone marks a publish attempt on a job without a result.
	ErrNotDone = errors.New("job not done")
	// ErrPublishInFlight marks a publish attempt while a prior one is pending.
	ErrPublishInFlight = errors.New("publish already in flight")
)

// Processor issues the per-job processing request and best-effort aborts.
type Processor interface {
	Process(ctx context.Context, req studio.ProcessRequest) (*studio.Bundle, error)
	Abort(ctx context.Context, requestID string) error
}

// StreamOpener opens per-job progress subscriptions.
type StreamOpener interface {
	Open(ctx context.Context, requestID string, fn progress.Handler) (io.Closer, error)
}

// BundleParser decodes result bundles into artifact sets.
type BundleParser interface {
	Parse(dirName string, bundle []byte) (*artifacts.Set, error)
}

// Registry owns the job collection and its state machine. Every mutation
// happens under one mutex and re-runs admission, so the running count and the
// FIFO queue can never lose updates across racing completions.
type Registry struct {
	cfg       *config.Config
	logger    *slog.Logger
	processor Processor
	streams   StreamOpener
	parser    BundleParser

	mu       sync.Mutex
	jobs     map[int64]*jobs.Job
	order    []int64
	queue    []int64
	payloads map[int64][]byte
	handles  map[int64]*runHandle
	nextID   int64

	updates chan struct{}
	wg      sync.WaitGroup
}

type runHandle struct {
	cancel context.CancelFunc
	sub    io.Closer
}

// New constructs a Registry wired to the given collaborators.
func New(cfg *config.Config, processor Processor, streams StreamOpener, parser BundleParser, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "registry"),
		processor: processor,
		streams:   streams,
		parser:    parser,
		jobs:      make(map[int64]*jobs.Job),
		payloads:  make(map[int64][]byte),
		handles:   make(map[int64]*runHandle),
		updates:   make(chan struct{}, 1),
	}
}

// NewWithChannel wires a Registry to the concrete backend clients.
func NewWithChannel(cfg *config.Config, processor Processor, channel *progress.Channel, parser BundleParser, logger *slog.Logger) *Registry {
	return New(cfg, processor, channelOpener{channel}, parser, logger)
}

type channelOpener struct {
	channel *progress.Channel
}

func (o channelOpener) Open(ctx context.Context, requestID string, fn progress.Handler) (io.Closer, error) {
	sub, err := o.channel.Open(ctx, requestID, fn)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Submit validates the input, creates a queued job, and immediately attempts
// admission. Invalid input performs no state change.
func (r *Registry) Submit(input jobs.Input, payload []byte, opts jobs.Options) (int64, error) {
	if input.Size == 0 {
		input.Size = int64(len(payload))
	}
	if err := jobs.ValidateInput(input, r.cfg.MaxUploadBytes()); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	job := jobs.New(id, input, opts)
	r.jobs[id] = job
	r.order = append(r.order, id)
	r.queue = append(r.queue, id)
	r.payloads[id] = payload

	r.logger.Info("job submitted",
		logging.Int64(logging.FieldJobID, id),
		logging.String("input", input.Name),
		logging.Int64("size", input.Size),
		logging.Int("queue_length", len(r.queue)))

	r.admitLocked()
	r.signalLocked()
	return id, nil
}

// Cancel stops a job. Terminal jobs are left untouched. Queued jobs are
// removed directly with zero remote calls. Running jobs get their in-flight
// request cancelled, their subscription closed, and a best-effort remote
// abort; local cancellation is authoritative regardless of the abort outcome.
func (r *Registry) Cancel(id int64) error {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if job.IsTerminal() {
		r.mu.Unlock()
		return nil
	}
	if job.Status == jobs.StatusQueued {
		r.dropQueuedLocked(id)
		r.signalLocked()
		r.mu.Unlock()
		r.logger.Info("queued job cancelled", logging.Int64(logging.FieldJobID, id))
		return nil
	}

	requestID := job.RequestID
	handle := r.handles[id]
	job.MarkCancelled()
	delete(r.payloads, id)
	r.admitLocked()
	r.signalLocked()
	r.mu.Unlock()

	if handle != nil {
		handle.cancel()
		if handle.sub != nil {
			handle.sub.Close()
		}
	}
	go r.remoteAbort(requestID)

	r.logger.Info("running job cancelled",
		logging.Int64(logging.FieldJobID, id),
		logging.String(logging.FieldRequestID, requestID))
	return nil
}

func (r *Registry) remoteAbort(requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.processor.Abort(ctx, requestID); err != nil {
		r.logger.Debug("remote abort failed",
			logging.String(logging.FieldRequestID, requestID),
			logging.Error(err))
	}
}

// Remove deletes a terminal job and releases its resources. Idempotent:
// removing an id that is already gone succeeds without doing anything, and
// resource release itself happens at most once.
func (r *Registry) Remove(id int64) error {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	if !job.IsTerminal() {
		r.mu.Unlock()
		return ErrNotTerminal
	}
	result := job.Result
	handle := r.handles[id]
	r.deleteLocked(id)
	r.signalLocked()
	r.mu.Unlock()

	if handle != nil {
		handle.cancel()
		if handle.sub != nil {
			handle.sub.Close()
		}
	}
	result.Release()
	return nil
}

// ResetAll cancels every running job, removes every job, and clears all
// registry state.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.jobs))
	for id, job := range r.jobs {
		if job.Status == jobs.StatusRunning {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Cancel(id) //nolint:errcheck
	}

	r.mu.Lock()
	for _, job := range r.jobs {
		job.Result.Release()
	}
	r.jobs = make(map[int64]*jobs.Job)
	r.order = nil
	r.queue = nil
	r.payloads = make(map[int64][]byte)
	r.handles = make(map[int64]*runHandle)
	r.signalLocked()
	r.mu.Unlock()
}

// Get returns a deep copy of one job.
func (r *Registry) Get(id int64) (*jobs.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// List returns deep copies of every job in submission order.
func (r *Registry) List() []*jobs.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*jobs.Job, 0, len(r.order))
	for _, id := range r.order {
		if job, ok := r.jobs[id]; ok {
			out = append(out, job.Clone())
		}
	}
	return out
}

// CountRunning returns the number of jobs currently running.
func (r *Registry) CountRunning() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countRunningLocked()
}

// Idle reports whether no job is queued or running.
func (r *Registry) Idle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) > 0 {
		return false
	}
	return r.countRunningLocked() == 0
}

// Updates delivers a coalesced signal after state changes. Intended for a
// single consumer driving display refresh or completion waits.
func (r *Registry) Updates() <-chan struct{} {
	return r.updates
}

// Wait blocks until every job reached a terminal state or ctx expires.
func (r *Registry) Wait(ctx context.Context) error {
	for {
		if r.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.updates:
		}
	}
}

func (r *Registry) countRunningLocked() int {
	count := 0
	for _, job := range r.jobs {
		if job.Status == jobs.StatusRunning {
			count++
		}
	}
	return count
}

func (r *Registry) dropQueuedLocked(id int64) {
	for i, queued := range r.queue {
		if queued == id {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			break
		}
	}
	r.deleteLocked(id)
}

func (r *Registry) deleteLocked(id int64) {
	delete(r.jobs, id)
	delete(r.payloads, id)
	delete(r.handles, id)
	for i, ordered := range r.order {
		if ordered == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) signalLocked() {
	select {
	case r.updates <- struct{}{}:
	default:
	}
}
