package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"atelier/internal/artifacts"
	"atelier/internal/config"
	"atelier/internal/history"
	"atelier/internal/jobs"
	"atelier/internal/logging"
	"atelier/internal/preflight"
	"atelier/internal/progress"
	"atelier/internal/publish"
	"atelier/internal/registry"
)

func newProcessCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		dpiFlag        int
		enhanceFlag    bool
		upscaleFlag    int
		mockupsFlag    bool
		videoFlag      bool
		textsFlag      bool
		publishFlag    bool
		maxRunningFlag int
	)

	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "Submit images for processing and watch progress",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			opts := cfg.Processing
			flags := cmd.Flags()
			if flags.Changed("dpi") {
				opts.DPI = dpiFlag
			}
			if flags.Changed("enhance") {
				opts.Enhance = enhanceFlag
			}
			if flags.Changed("upscale") {
				if upscaleFlag != 2 && upscaleFlag != 4 {
					return fmt.Errorf("--upscale must be 2 or 4")
				}
				opts.Upscale = upscaleFlag
			}
			if flags.Changed("mockups") {
				opts.Mockups = mockupsFlag
			}
			if flags.Changed("video") {
				opts.Video = videoFlag
			}
			if flags.Changed("texts") {
				opts.Texts = textsFlag
			}
			if flags.Changed("max-running") {
				if maxRunningFlag < 1 {
					return fmt.Errorf("--max-running must be at least 1")
				}
				cfg.Workflow.MaxRunning = maxRunningFlag
			}

			return runProcess(cmd, cmdCtx, cfg, args, toJobOptions(opts), publishFlag)
		},
	}

	cmd.Flags().IntVar(&dpiFlag, "dpi", 300, "Target DPI for the processed image")
	cmd.Flags().BoolVar(&enhanceFlag, "enhance", false, "Apply automatic enhancement")
	cmd.Flags().IntVar(&upscaleFlag, "upscale", 2, "Upscale factor (2 or 4)")
	cmd.Flags().BoolVar(&mockupsFlag, "mockups", false, "Generate mockup renders")
	cmd.Flags().BoolVar(&videoFlag, "video", false, "Generate a preview video")
	cmd.Flags().BoolVar(&textsFlag, "texts", false, "Generate listing text metadata")
	cmd.Flags().BoolVar(&publishFlag, "publish", false, "Publish completed jobs as draft listings")
	cmd.Flags().IntVar(&maxRunningFlag, "max-running", 0, "Concurrency ceiling override")

	return cmd
}

func toJobOptions(p config.Processing) jobs.Options {
	return jobs.Options{
		DPI:     p.DPI,
		Enhance: p.Enhance,
		Upscale: p.Upscale,
		Mockups: p.Mockups,
		Video:   p.Video,
		Texts:   p.Texts,
	}
}

func runProcess(cmd *cobra.Command, cmdCtx *commandContext, cfg *config.Config, files []string, opts jobs.Options, publishAfter bool) error {
	logger, err := logging.NewFileLogger(cfg)
	if err != nil {
		return err
	}

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "atelier.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another atelier instance is already processing")
	}
	defer lock.Unlock() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	results := preflight.RunAll(ctx, cfg)
	if !preflight.AllPassed(results) {
		for _, result := range results {
			marker := "ok"
			if !result.Passed {
				marker = "FAIL"
			}
			fmt.Fprintf(out, "%-4s %s: %s\n", marker, result.Name, result.Detail)
		}
		return fmt.Errorf("preflight checks failed")
	}

	processor := cmdCtx.studioClient(cfg)
	channel := progress.NewChannel(cfg.Studio.BaseURL,
		time.Duration(cfg.Studio.ProgressTimeout)*time.Second, logger)
	parser := artifacts.NewParser(cfg.Paths.StagingDir, logger)
	reg := registry.NewWithChannel(cfg, processor, channel, parser, logger)

	ids, submitErrs := submitFiles(reg, cfg, files, opts)
	for _, submitErr := range submitErrs {
		fmt.Fprintf(out, "skipped: %v\n", submitErr)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no files submitted")
	}

	watchProgress(ctx, reg, newLiveRenderer(cmd.OutOrStdout()))

	jobList := reg.List()
	fmt.Fprintln(out, summaryTable(jobList))

	if publishAfter {
		if err := publishCompleted(ctx, cmdCtx, cfg, reg, jobList, logger, out); err != nil {
			return err
		}
		jobList = reg.List()
	}

	if failed := countFailed(jobList); failed > 0 {
		return fmt.Errorf("%d of %d jobs did not complete", failed, len(jobList))
	}
	return nil
}

func submitFiles(reg *registry.Registry, cfg *config.Config, files []string, opts jobs.Options) ([]int64, []error) {
	var (
		ids  []int64
		errs []error
	)
	for _, file := range files {
		payload, err := os.ReadFile(file)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		mediaType, _ := jobs.MediaTypeForExtension(filepath.Ext(file))
		input := jobs.Input{
			Name:      filepath.Base(file),
			Size:      int64(len(payload)),
			MediaType: mediaType,
		}
		id, err := reg.Submit(input, payload, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", file, err))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errs
}

// watchProgress drives the live display until every job is terminal. An
// interrupt cancels all remaining jobs once and then keeps watching so the
// cancellations settle before the summary renders.
func watchProgress(ctx context.Context, reg *registry.Registry, renderer *liveRenderer) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	interrupted := false
	for {
		renderer.render(reg.List())
		if reg.Idle() {
			return
		}
		select {
		case <-ctx.Done():
			if !interrupted {
				interrupted = true
				cancelAll(reg)
			}
			time.Sleep(50 * time.Millisecond)
		case <-reg.Updates():
		case <-ticker.C:
		}
	}
}

func cancelAll(reg *registry.Registry) {
	for _, job := range reg.List() {
		if !job.IsTerminal() {
			reg.Cancel(job.ID) //nolint:errcheck
		}
	}
}

func summaryTable(jobList []*jobs.Job) string {
	rows := make([][]string, 0, len(jobList))
	for _, job := range jobList {
		detail := ""
		switch job.Status {
		case jobs.StatusError:
			detail = job.ErrorMessage
		case jobs.StatusDone:
			if job.Result != nil {
				detail = fmt.Sprintf("%d artifacts in %s", len(job.Result.Handles()), job.Result.Dir())
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", job.ID),
			job.Input.Name,
			string(job.Status),
			detail,
		})
	}
	return renderTable(
		[]column{numericColumn("ID"), textColumn("Input"), textColumn("Status"), textColumn("Detail")},
		rows,
	)
}

func countFailed(jobList []*jobs.Job) int {
	failed := 0
	for _, job := range jobList {
		if job.Status != jobs.StatusDone {
			failed++
		}
	}
	return failed
}

func publishCompleted(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, reg *registry.Registry, jobList []*jobs.Job, logger *slog.Logger, out io.Writer) error {
	if !cfg.Etsy.Enabled {
		return fmt.Errorf("publishing requested but etsy is disabled in the configuration")
	}

	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	coordinator := publish.NewCoordinator(cfg, reg, cmdCtx.etsyClient(cfg), store, logger)
	if err := coordinator.CheckAuth(ctx); err != nil {
		return err
	}

	var doneIDs []int64
	for _, job := range jobList {
		if job.Status == jobs.StatusDone {
			doneIDs = append(doneIDs, job.ID)
		}
	}
	summary := coordinator.PublishBatch(ctx, doneIDs)
	for _, id := range summary.Published {
		job, getErr := reg.Get(id)
		if getErr != nil {
			continue
		}
		fmt.Fprintf(out, "published job %d as listing %d\n", id, job.Publish.ListingID)
	}
	for _, failure := range summary.Failed {
		fmt.Fprintf(out, "publish failed for job %d: %v\n", failure.JobID, failure.Err)
	}
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d publishes failed", len(summary.Failed), len(doneIDs))
	}
	return nil
}
