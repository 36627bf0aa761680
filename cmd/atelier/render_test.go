package main

import (
	"bytes"
	"strings"
	"testing"

	"atelier/internal/artifacts"
	"atelier/internal/jobs"
	"atelier/internal/testsupport"
)

func sampleJob(t *testing.T, id int64, status jobs.Status) *jobs.Job {
	t.Helper()
	job := jobs.New(id, jobs.Input{Name: "art.png", Size: 10, MediaType: "image/png"}, jobs.Options{Mockups: true})
	if status != jobs.StatusQueued {
		job.Start("req")
	}
	switch status {
	case jobs.StatusDone:
		job.MarkDone(nil)
	case jobs.StatusError:
		job.MarkError("backend status 500")
	case jobs.StatusCancelled:
		job.MarkCancelled()
	}
	return job
}

func TestStepSummary(t *testing.T) {
	job := sampleJob(t, 1, jobs.StatusRunning)
	summary := stepSummary(job)
	if !strings.Contains(summary, "image …") {
		t.Fatalf("first step should show as started, got %q", summary)
	}
	if !strings.Contains(summary, "mockups ·") {
		t.Fatalf("later steps should show as pending, got %q", summary)
	}

	job.CompleteSteps()
	summary = stepSummary(job)
	if strings.Contains(summary, "·") || strings.Contains(summary, "…") {
		t.Fatalf("completed job should show only done markers, got %q", summary)
	}
}

func TestStepSummaryQueued(t *testing.T) {
	job := sampleJob(t, 1, jobs.StatusQueued)
	if got := stepSummary(job); got != "-" {
		t.Fatalf("queued job has no steps yet, got %q", got)
	}
}

func TestRenderTransitionsPrintsOnce(t *testing.T) {
	var out bytes.Buffer
	renderer := newLiveRenderer(&out)
	jobList := []*jobs.Job{sampleJob(t, 1, jobs.StatusRunning)}

	renderer.render(jobList)
	renderer.render(jobList)
	if got := strings.Count(out.String(), "job 1"); got != 1 {
		t.Fatalf("unchanged status should print once, got %d lines", got)
	}

	jobList[0].MarkDone(nil)
	renderer.render(jobList)
	if !strings.Contains(out.String(), "done") {
		t.Fatalf("expected transition line, got %q", out.String())
	}
}

func TestSummaryTable(t *testing.T) {
	rendered := summaryTable([]*jobs.Job{
		sampleJob(t, 1, jobs.StatusDone),
		sampleJob(t, 2, jobs.StatusError),
	})
	if !strings.Contains(rendered, "done") || !strings.Contains(rendered, "backend status 500") {
		t.Fatalf("unexpected summary table:\n%s", rendered)
	}
}

func TestSummaryTableShowsArtifactLocation(t *testing.T) {
	parser := artifacts.NewParser(t.TempDir(), nil)
	set, err := parser.Parse("job-1", testsupport.CompleteBundle(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer set.Release()

	job := sampleJob(t, 1, jobs.StatusRunning)
	job.MarkDone(set)

	rendered := summaryTable([]*jobs.Job{job})
	if !strings.Contains(rendered, set.Dir()) {
		t.Fatalf("expected artifact directory in summary:\n%s", rendered)
	}
}

func TestBundleStoreSingleFlight(t *testing.T) {
	store := newBundleStore()
	id := store.add("bundle.zip", nil)

	if _, err := store.BeginPublish(id); err != nil {
		t.Fatalf("BeginPublish failed: %v", err)
	}
	if _, err := store.BeginPublish(id); err == nil {
		t.Fatal("expected in-flight rejection")
	}

	store.CompletePublish(id, 55, nil)
	if store.listingID(id) != 55 {
		t.Fatalf("expected listing 55, got %d", store.listingID(id))
	}
	if _, err := store.BeginPublish(id); err != nil {
		t.Fatalf("completed publish should allow retry: %v", err)
	}
}
