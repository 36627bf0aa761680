package jobs_test

import (
	"errors"
	"testing"

	"atelier/internal/jobs"
	"atelier/internal/services"
)

func sampleInput() jobs.Input {
	return jobs.Input{Name: "art.png", Size: 1024, MediaType: "image/png"}
}

func TestStepsForDerivation(t *testing.T) {
	cases := []struct {
		name string
		opts jobs.Options
		want []jobs.Step
	}{
		{"base only", jobs.Options{}, []jobs.Step{jobs.StepImage, jobs.StepPackage}},
		{"all enabled", jobs.Options{Mockups: true, Video: true, Texts: true},
			[]jobs.Step{jobs.StepImage, jobs.StepMockups, jobs.StepVideo, jobs.StepTexts, jobs.StepPackage}},
		{"video only", jobs.Options{Video: true},
			[]jobs.Step{jobs.StepImage, jobs.StepVideo, jobs.StepPackage}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := jobs.StepsFor(tc.opts)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("step %d: got %v, want %v", i, got, tc.want)
				}
			}
		})
	}
}

func TestStartInitializesSteps(t *testing.T) {
	job := jobs.New(1, sampleInput(), jobs.Options{Mockups: true})
	job.Start("req-1")

	if job.Status != jobs.StatusRunning {
		t.Fatalf("expected running, got %s", job.Status)
	}
	if job.RequestID != "req-1" {
		t.Fatalf("expected request id set, got %q", job.RequestID)
	}
	if len(job.StepStatus) != len(job.StepOrder) {
		t.Fatalf("step status keys must match step order")
	}
	if job.StepStatus[jobs.StepImage] != jobs.StepStarted {
		t.Fatalf("first step should be optimistically started, got %s", job.StepStatus[jobs.StepImage])
	}
	if job.StepStatus[jobs.StepMockups] != jobs.StepPending {
		t.Fatalf("later steps should be pending, got %s", job.StepStatus[jobs.StepMockups])
	}
}

func TestStartOnlyFromQueued(t *testing.T) {
	job := jobs.New(1, sampleInput(), jobs.Options{})
	job.Start("req-1")
	job.Start("req-2")
	if job.RequestID != "req-1" {
		t.Fatalf("second Start must be a no-op, got %q", job.RequestID)
	}
}

func TestApplyStepIgnoresUnknown(t *testing.T) {
	job := jobs.New(1, sampleInput(), jobs.Options{})
	job.Start("req-1")
	job.ApplyStep(jobs.Step("hologram"), jobs.StepDone)
	if _, ok := job.StepStatus[jobs.Step("hologram")]; ok {
		t.Fatal("unknown step keys must not be added")
	}
}

func TestMarkDoneForcesSteps(t *testing.T) {
	job := jobs.New(1, sampleInput(), jobs.Options{Video: true})
	job.Start("req-1")
	job.ApplyStep(jobs.StepImage, jobs.StepDone)
	job.MarkDone(nil)

	if job.Status != jobs.StatusDone {
		t.Fatalf("expected done, got %s", job.Status)
	}
	if !job.AllStepsDone() {
		t.Fatalf("done jobs must have every step done: %v", job.StepStatus)
	}
}

func TestTerminalTransitionsAreSticky(t *testing.T) {
	job := jobs.New(1, sampleInput(), jobs.Options{})
	job.Start("req-1")
	job.MarkCancelled()
	job.MarkError("late failure")
	if job.Status != jobs.StatusCancelled {
		t.Fatalf("terminal state must not be re-entered, got %s", job.Status)
	}
	job.MarkCancelled()
	if job.Status != jobs.StatusCancelled {
		t.Fatal("cancel must stay idempotent")
	}
}

func TestPromoteFirstStep(t *testing.T) {
	job := jobs.New(1, sampleInput(), jobs.Options{})
	job.Start("req-1")
	job.StepStatus[jobs.StepImage] = jobs.StepPending
	job.PromoteFirstStep()
	if job.StepStatus[jobs.StepImage] != jobs.StepStarted {
		t.Fatalf("expected first step promoted, got %s", job.StepStatus[jobs.StepImage])
	}
	job.StepStatus[jobs.StepImage] = jobs.StepDone
	job.PromoteFirstStep()
	if job.StepStatus[jobs.StepImage] != jobs.StepDone {
		t.Fatal("promotion must not downgrade a done step")
	}
}

func TestCloneIsDeep(t *testing.T) {
	job := jobs.New(1, sampleInput(), jobs.Options{})
	job.Start("req-1")
	cp := job.Clone()
	cp.StepStatus[jobs.StepImage] = jobs.StepDone
	if job.StepStatus[jobs.StepImage] == jobs.StepDone {
		t.Fatal("clone must not share step status map")
	}
}

func TestValidateInput(t *testing.T) {
	const limit = 4 << 20
	cases := []struct {
		name  string
		input jobs.Input
		ok    bool
	}{
		{"png ok", jobs.Input{Name: "a.png", Size: 100, MediaType: "image/png"}, true},
		{"jpeg ok", jobs.Input{Name: "a.jpg", Size: 100, MediaType: "image/jpeg"}, true},
		{"webp ok", jobs.Input{Name: "a.webp", Size: 100, MediaType: "image/webp"}, true},
		{"gif rejected", jobs.Input{Name: "a.gif", Size: 100, MediaType: "image/gif"}, false},
		{"empty rejected", jobs.Input{Name: "a.png", Size: 0, MediaType: "image/png"}, false},
		{"oversize rejected", jobs.Input{Name: "a.png", Size: limit + 1, MediaType: "image/png"}, false},
		{"nameless rejected", jobs.Input{Name: " ", Size: 100, MediaType: "image/png"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := jobs.ValidateInput(tc.input, limit)
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, services.ErrValidation) {
					t.Fatalf("expected ErrValidation marker, got %v", err)
				}
			}
		})
	}
}

func TestMediaTypeForExtension(t *testing.T) {
	if mt, ok := jobs.MediaTypeForExtension(".JPG"); !ok || mt != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q %v", mt, ok)
	}
	if _, ok := jobs.MediaTypeForExtension(".bmp"); ok {
		t.Fatal("bmp must be rejected")
	}
}
