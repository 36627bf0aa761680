package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"atelier/internal/jobs"
)

// liveRenderer draws the per-job step table. On a TTY the table is rewritten
// in place; otherwise only status transitions are printed so logs stay
// readable.
type liveRenderer struct {
	out       io.Writer
	tty       bool
	lastLines int
	lastSeen  map[int64]jobs.Status
}

func newLiveRenderer(out io.Writer) *liveRenderer {
	return &liveRenderer{
		out:      out,
		tty:      isTerminal(out),
		lastSeen: make(map[int64]jobs.Status),
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *liveRenderer) render(jobList []*jobs.Job) {
	if r.tty {
		r.renderTTY(jobList)
		return
	}
	r.renderTransitions(jobList)
}

func (r *liveRenderer) renderTTY(jobList []*jobs.Job) {
	if r.lastLines > 0 {
		fmt.Fprintf(r.out, "\x1b[%dA\x1b[J", r.lastLines)
	}
	rendered := progressTable(jobList)
	fmt.Fprintln(r.out, rendered)
	r.lastLines = strings.Count(rendered, "\n") + 2
}

func (r *liveRenderer) renderTransitions(jobList []*jobs.Job) {
	for _, job := range jobList {
		if r.lastSeen[job.ID] == job.Status {
			continue
		}
		r.lastSeen[job.ID] = job.Status
		fmt.Fprintf(r.out, "job %d (%s): %s\n", job.ID, job.Input.Name, job.Status)
	}
}

func progressTable(jobList []*jobs.Job) string {
	rows := make([][]string, 0, len(jobList))
	for _, job := range jobList {
		rows = append(rows, []string{
			fmt.Sprintf("%d", job.ID),
			job.Input.Name,
			string(job.Status),
			stepSummary(job),
		})
	}
	return renderTable(
		[]column{numericColumn("ID"), textColumn("Input"), textColumn("Status"), textColumn("Steps")},
		rows,
	)
}

func stepSummary(job *jobs.Job) string {
	if len(job.StepOrder) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(job.StepOrder))
	for _, step := range job.StepOrder {
		parts = append(parts, fmt.Sprintf("%s %s", step.Label(), stepMarker(job.StepStatus[step])))
	}
	return strings.Join(parts, "  ")
}

func stepMarker(state jobs.StepState) string {
	switch state {
	case jobs.StepDone:
		return "✓"
	case jobs.StepStarted:
		return "…"
	default:
		return "·"
	}
}
