package publish

import (
	"context"
	"log/slog"

	"atelier/internal/config"
	"atelier/internal/history"
	"atelier/internal/jobs"
	"atelier/internal/logging"
	"atelier/internal/services"
	"atelier/internal/services/etsy"
)

// JobStore is the registry surface the coordinator drives: single-flight
// acquisition and outcome recording.
type JobStore interface {
	BeginPublish(id int64) (*jobs.Job, error)
	CompletePublish(id int64, listingID int64, err error)
}

// Publisher is the marketplace gateway surface.
type Publisher interface {
	AuthStatus(ctx context.Context) (bool, error)
	CreateDraftListing(ctx context.Context, draft etsy.Draft) (int64, error)
}

// Recorder persists successful publishes. Optional; nil disables history.
type Recorder interface {
	Add(ctx context.Context, record history.Record) (*history.Record, error)
}

// Failure captures one job that could not be published.
type Failure struct {
	JobID int64
	Err   error
}

// Summary is the outcome of a batch publish.
type Summary struct {
	Published []int64
	Failed    []Failure
}

// Coordinator fans completed jobs out to the marketplace, one listing per
// job, never retrying automatically.
type Coordinator struct {
	cfg       *config.Config
	store     JobStore
	publisher Publisher
	recorder  Recorder
	logger    *slog.Logger
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(cfg *config.Config, store JobStore, publisher Publisher, recorder Recorder, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		store:     store,
		publisher: publisher,
		recorder:  recorder,
		logger:    logging.NewComponentLogger(logger, "publish"),
	}
}

// PublishOne publishes one completed job and returns the new listing id. The
// job's publish sub-state is left done or error; the job status itself is
// never touched.
func (c *Coordinator) PublishOne(ctx context.Context, id int64) (int64, error) {
	job, err := c.store.BeginPublish(id)
	if err != nil {
		return 0, err
	}

	listingID, err := c.publishAcquired(ctx, job)
	c.store.CompletePublish(id, listingID, err)
	if err != nil {
		c.logger.Warn("publish failed",
			logging.Int64(logging.FieldJobID, id),
			logging.Error(err))
		return 0, err
	}

	c.logger.Info("listing published",
		logging.Int64(logging.FieldJobID, id),
		logging.Int64("listing_id", listingID))
	c.record(ctx, job, listingID)
	return listingID, nil
}

// PublishBatch publishes every given job independently; one failure never
// stops the rest.
func (c *Coordinator) PublishBatch(ctx context.Context, ids []int64) Summary {
	var summary Summary
	for _, id := range ids {
		if _, err := c.PublishOne(ctx, id); err != nil {
			summary.Failed = append(summary.Failed, Failure{JobID: id, Err: err})
			continue
		}
		summary.Published = append(summary.Published, id)
	}
	return summary
}

// CheckAuth verifies the gateway holds a marketplace session before a batch
// touches any job state.
func (c *Coordinator) CheckAuth(ctx context.Context) error {
	connected, err := c.publisher.AuthStatus(ctx)
	if err != nil {
		return err
	}
	if !connected {
		return services.Wrap(services.ErrAuthRequired, "publish", "auth check",
			"marketplace account not connected", nil)
	}
	return nil
}

func (c *Coordinator) publishAcquired(ctx context.Context, job *jobs.Job) (int64, error) {
	draft, err := buildDraft(job, c.cfg.Etsy)
	if err != nil {
		return 0, err
	}
	return c.publisher.CreateDraftListing(ctx, draft)
}

func (c *Coordinator) record(ctx context.Context, job *jobs.Job, listingID int64) {
	if c.recorder == nil {
		return
	}
	title := fallbackTitle
	if job.Result != nil && job.Result.Texts != nil && job.Result.Texts.Title != "" {
		title = job.Result.Texts.Title
	}
	if _, err := c.recorder.Add(ctx, history.Record{
		ListingID: listingID,
		InputName: job.Input.Name,
		Title:     title,
		ShopID:    c.cfg.Etsy.ShopID,
	}); err != nil {
		c.logger.Warn("history record failed",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.Error(err))
	}
}
