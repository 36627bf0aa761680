package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"atelier/internal/artifacts"
	"atelier/internal/history"
	"atelier/internal/jobs"
	"atelier/internal/logging"
	"atelier/internal/publish"
)

func newPublishCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [bundles...]",
		Short: "Publish previously downloaded result bundles as draft listings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Etsy.Enabled {
				return fmt.Errorf("etsy is disabled in the configuration")
			}

			// No live table here, so log to stderr and the log file both.
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			parser := artifacts.NewParser(cfg.Paths.StagingDir, logger)
			store := newBundleStore()
			for _, path := range args {
				data, readErr := os.ReadFile(path)
				if readErr != nil {
					return fmt.Errorf("%s: %w", path, readErr)
				}
				name := filepath.Base(path)
				set, parseErr := parser.Parse("publish-"+name, data)
				if parseErr != nil {
					return fmt.Errorf("%s: %w", path, parseErr)
				}
				store.add(name, set)
			}
			defer store.release()

			historyStore, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer historyStore.Close()

			coordinator := publish.NewCoordinator(cfg, store, cmdCtx.etsyClient(cfg), historyStore, logger)
			if err := coordinator.CheckAuth(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			summary := coordinator.PublishBatch(cmd.Context(), store.ids())
			for _, id := range summary.Published {
				fmt.Fprintf(out, "published %s as listing %d\n", store.name(id), store.listingID(id))
			}
			for _, failure := range summary.Failed {
				fmt.Fprintf(out, "publish failed for %s: %v\n", store.name(failure.JobID), failure.Err)
			}
			if len(summary.Failed) > 0 {
				return fmt.Errorf("%d of %d publishes failed", len(summary.Failed), len(args))
			}
			return nil
		},
	}
	return cmd
}

// bundleStore adapts standalone bundle files to the coordinator's job
// surface: each parsed bundle becomes one synthetic completed job.
type bundleStore struct {
	byID   map[int64]*jobs.Job
	nextID int64
}

func newBundleStore() *bundleStore {
	return &bundleStore{byID: make(map[int64]*jobs.Job)}
}

func (s *bundleStore) add(name string, set *artifacts.Set) int64 {
	s.nextID++
	job := jobs.New(s.nextID, jobs.Input{Name: name, Size: 1, MediaType: "image/png"}, jobs.Options{})
	job.Start(fmt.Sprintf("local-%d", s.nextID))
	job.MarkDone(set)
	s.byID[s.nextID] = job
	return s.nextID
}

func (s *bundleStore) ids() []int64 {
	out := make([]int64, 0, len(s.byID))
	for id := int64(1); id <= s.nextID; id++ {
		if _, ok := s.byID[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *bundleStore) name(id int64) string {
	if job, ok := s.byID[id]; ok {
		return job.Input.Name
	}
	return fmt.Sprintf("job %d", id)
}

func (s *bundleStore) listingID(id int64) int64 {
	if job, ok := s.byID[id]; ok {
		return job.Publish.ListingID
	}
	return 0
}

func (s *bundleStore) release() {
	for _, job := range s.byID {
		job.Result.Release()
	}
}

func (s *bundleStore) BeginPublish(id int64) (*jobs.Job, error) {
	job, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown bundle %d", id)
	}
	if job.Publish.Status == jobs.PublishPending {
		return nil, fmt.Errorf("publish already in flight for %s", job.Input.Name)
	}
	job.Publish = jobs.PublishState{Status: jobs.PublishPending}
	return job.Clone(), nil
}

func (s *bundleStore) CompletePublish(id int64, listingID int64, err error) {
	job, ok := s.byID[id]
	if !ok {
		return
	}
	if err != nil {
		job.Publish = jobs.PublishState{Status: jobs.PublishError, Error: err.Error()}
		return
	}
	job.Publish = jobs.PublishState{Status: jobs.PublishDone, ListingID: listingID}
}
