package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atelier/internal/artifacts"
	"atelier/internal/config"
	"atelier/internal/history"
	"atelier/internal/jobs"
	"atelier/internal/services"
	"atelier/internal/services/etsy"
	"atelier/internal/testsupport"
)

type stubStore struct {
	job       *jobs.Job
	beginErr  error
	completed []struct {
		id        int64
		listingID int64
		err       error
	}
}

func (s *stubStore) BeginPublish(id int64) (*jobs.Job, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return s.job, nil
}

func (s *stubStore) CompletePublish(id int64, listingID int64, err error) {
	s.completed = append(s.completed, struct {
		id        int64
		listingID int64
		err       error
	}{id, listingID, err})
}

type stubPublisher struct {
	connected bool
	authErr   error
	listingID int64
	createErr error
	drafts    []etsy.Draft
}

func (p *stubPublisher) AuthStatus(ctx context.Context) (bool, error) {
	return p.connected, p.authErr
}

func (p *stubPublisher) CreateDraftListing(ctx context.Context, draft etsy.Draft) (int64, error) {
	p.drafts = append(p.drafts, draft)
	if p.createErr != nil {
		return 0, p.createErr
	}
	return p.listingID, nil
}

type stubRecorder struct {
	records []history.Record
	err     error
}

func (r *stubRecorder) Add(ctx context.Context, record history.Record) (*history.Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.records = append(r.records, record)
	return &record, nil
}

func writeArtifact(t *testing.T, dir, name string, data []byte) artifacts.Handle {
	t.Helper()
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return artifacts.Handle{Name: name, Path: path, Size: int64(len(data))}
}

func doneJob(t *testing.T, set *artifacts.Set) *jobs.Job {
	t.Helper()
	job := jobs.New(1, jobs.Input{Name: "sunset.png", MediaType: "image/png", Size: 3}, jobs.Options{})
	job.Start("req-1")
	job.MarkDone(set)
	return job
}

func etsyConfig() config.Etsy {
	return config.Etsy{
		Enabled:        true,
		ShopID:         "shop-9",
		TaxonomyID:     "tax-1",
		Price:          "5.00",
		Quantity:       "10",
		Materials:      "paper, Paper ,ink",
		Orientation:    "vertical",
		PiecesIncluded: "1",
	}
}

func TestBuildDraftMapsArtifactsAndMetadata(t *testing.T) {
	dir := t.TempDir()
	video := writeArtifact(t, dir, "preview.mp4", []byte("vid"))
	set := &artifacts.Set{
		Primary: writeArtifact(t, dir, "processed.png", []byte("img")),
		Mockups: []artifacts.Handle{writeArtifact(t, dir, "frame-1.jpg", []byte("m1"))},
		Video:   &video,
		Texts: &artifacts.TextMetadata{
			Title:       "Sunset Print",
			Description: "A warm sunset.",
			Tags:        "sunset,print",
			AltText:     "Orange sunset over water",
		},
	}
	job := doneJob(t, set)

	draft, err := buildDraft(job, etsyConfig())
	if err != nil {
		t.Fatalf("buildDraft failed: %v", err)
	}
	if draft.Title != "Sunset Print" || draft.Tags != "sunset,print" {
		t.Fatalf("unexpected metadata %+v", draft)
	}
	if draft.Materials != "paper,ink" {
		t.Fatalf("materials should deduplicate, got %q", draft.Materials)
	}
	if string(draft.Processed.Data) != "img" || draft.Processed.MediaType != "image/png" {
		t.Fatalf("unexpected processed part %+v", draft.Processed)
	}
	if len(draft.Mockups) != 1 || string(draft.Mockups[0].Data) != "m1" {
		t.Fatalf("unexpected mockups %+v", draft.Mockups)
	}
	if draft.Video == nil || draft.Video.MediaType != "video/mp4" {
		t.Fatalf("unexpected video part %+v", draft.Video)
	}
	if draft.ShopID != "shop-9" || draft.Price != "5.00" {
		t.Fatalf("config defaults not applied: %+v", draft)
	}
}

func TestBuildDraftFallbacks(t *testing.T) {
	dir := t.TempDir()
	set := &artifacts.Set{Primary: writeArtifact(t, dir, "processed.png", []byte("img"))}
	job := doneJob(t, set)

	draft, err := buildDraft(job, etsyConfig())
	if err != nil {
		t.Fatalf("buildDraft failed: %v", err)
	}
	if draft.Title != "Digital Download" {
		t.Fatalf("expected fallback title, got %q", draft.Title)
	}
	if draft.Description != "High-resolution digital download." {
		t.Fatalf("expected fallback description, got %q", draft.Description)
	}
	if draft.Tags != "digital,download,printable" {
		t.Fatalf("expected fallback tags, got %q", draft.Tags)
	}
	if draft.AltText != "" {
		t.Fatalf("alt text has no fallback, got %q", draft.AltText)
	}
}

func TestBuildDraftNormalizesAndTruncates(t *testing.T) {
	dir := t.TempDir()
	set := &artifacts.Set{
		Primary: writeArtifact(t, dir, "processed.png", []byte("img")),
		Texts: &artifacts.TextMetadata{
			Title:   "Café Poster", // decomposed é
			AltText: strings.Repeat("a", 600),
		},
	}
	job := doneJob(t, set)

	draft, err := buildDraft(job, etsyConfig())
	if err != nil {
		t.Fatalf("buildDraft failed: %v", err)
	}
	if draft.Title != "Café Poster" {
		t.Fatalf("expected NFC-composed title, got %q", draft.Title)
	}
	if got := len([]rune(draft.AltText)); got != 500 {
		t.Fatalf("alt text should be capped at 500 runes, got %d", got)
	}
}

func TestBuildDraftCapsMockups(t *testing.T) {
	dir := t.TempDir()
	set := &artifacts.Set{Primary: writeArtifact(t, dir, "processed.png", []byte("img"))}
	for i := 0; i < 12; i++ {
		set.Mockups = append(set.Mockups, writeArtifact(t, dir, fmt.Sprintf("frame-%d.jpg", i), []byte("m")))
	}
	job := doneJob(t, set)

	draft, err := buildDraft(job, etsyConfig())
	if err != nil {
		t.Fatalf("buildDraft failed: %v", err)
	}
	if len(draft.Mockups) != 9 {
		t.Fatalf("expected 9 mockups, got %d", len(draft.Mockups))
	}
}

func TestBuildDraftMissingArtifactFile(t *testing.T) {
	set := &artifacts.Set{Primary: artifacts.Handle{Name: "processed.png", Path: filepath.Join(t.TempDir(), "gone.png")}}
	job := doneJob(t, set)

	if _, err := buildDraft(job, etsyConfig()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func newTestCoordinator(t *testing.T, store JobStore, publisher Publisher, recorder Recorder) *Coordinator {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithEtsy("shop-9", "tax-1"))
	return NewCoordinator(cfg, store, publisher, recorder, nil)
}

func TestPublishOneRecordsOutcome(t *testing.T) {
	dir := t.TempDir()
	set := &artifacts.Set{
		Primary: writeArtifact(t, dir, "processed.png", []byte("img")),
		Texts:   &artifacts.TextMetadata{Title: "Sunset Print"},
	}
	store := &stubStore{job: doneJob(t, set)}
	publisher := &stubPublisher{listingID: 777}
	recorder := &stubRecorder{}
	coordinator := newTestCoordinator(t, store, publisher, recorder)

	listingID, err := coordinator.PublishOne(context.Background(), 1)
	if err != nil {
		t.Fatalf("PublishOne failed: %v", err)
	}
	if listingID != 777 {
		t.Fatalf("expected listing 777, got %d", listingID)
	}
	if len(store.completed) != 1 || store.completed[0].listingID != 777 || store.completed[0].err != nil {
		t.Fatalf("unexpected completion %+v", store.completed)
	}
	if len(recorder.records) != 1 || recorder.records[0].Title != "Sunset Print" || recorder.records[0].InputName != "sunset.png" {
		t.Fatalf("unexpected history %+v", recorder.records)
	}
}

func TestPublishOneGatewayFailure(t *testing.T) {
	dir := t.TempDir()
	set := &artifacts.Set{Primary: writeArtifact(t, dir, "processed.png", []byte("img"))}
	store := &stubStore{job: doneJob(t, set)}
	publisher := &stubPublisher{createErr: services.Wrap(services.ErrAuthRequired, "etsy", "create draft", "connect first", nil)}
	recorder := &stubRecorder{}
	coordinator := newTestCoordinator(t, store, publisher, recorder)

	if _, err := coordinator.PublishOne(context.Background(), 1); !errors.Is(err, services.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if len(store.completed) != 1 || store.completed[0].err == nil {
		t.Fatalf("failure must be recorded on the job, got %+v", store.completed)
	}
	if len(recorder.records) != 0 {
		t.Fatal("failed publishes must not enter history")
	}
}

func TestPublishOneRespectsSingleFlight(t *testing.T) {
	store := &stubStore{beginErr: errors.New("publish already in flight")}
	publisher := &stubPublisher{listingID: 1}
	coordinator := newTestCoordinator(t, store, publisher, nil)

	if _, err := coordinator.PublishOne(context.Background(), 1); err == nil {
		t.Fatal("expected single-flight rejection to propagate")
	}
	if len(publisher.drafts) != 0 {
		t.Fatal("a rejected acquisition must not reach the gateway")
	}
	if len(store.completed) != 0 {
		t.Fatal("a rejected acquisition must not record an outcome")
	}
}

func TestPublishBatchIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	set := &artifacts.Set{Primary: writeArtifact(t, dir, "processed.png", []byte("img"))}

	calls := 0
	store := &flakyStore{job: doneJob(t, set), failOn: 2, calls: &calls}
	publisher := &stubPublisher{listingID: 5}
	coordinator := newTestCoordinator(t, store, publisher, nil)

	summary := coordinator.PublishBatch(context.Background(), []int64{1, 2, 3})
	if len(summary.Published) != 2 || len(summary.Failed) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Failed[0].JobID != 2 {
		t.Fatalf("expected job 2 to fail, got %d", summary.Failed[0].JobID)
	}
}

type flakyStore struct {
	job    *jobs.Job
	failOn int64
	calls  *int
}

func (s *flakyStore) BeginPublish(id int64) (*jobs.Job, error) {
	*s.calls++
	if id == s.failOn {
		return nil, errors.New("job not done")
	}
	return s.job, nil
}

func (s *flakyStore) CompletePublish(id int64, listingID int64, err error) {}

func TestCheckAuth(t *testing.T) {
	coordinator := newTestCoordinator(t, &stubStore{}, &stubPublisher{connected: true}, nil)
	if err := coordinator.CheckAuth(context.Background()); err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}

	coordinator = newTestCoordinator(t, &stubStore{}, &stubPublisher{connected: false}, nil)
	if err := coordinator.CheckAuth(context.Background()); !errors.Is(err, services.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
}
