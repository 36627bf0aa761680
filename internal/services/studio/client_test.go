package studio_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atelier/internal/services"
	"atelier/internal/services/studio"
)

func sampleRequest() studio.ProcessRequest {
	return studio.ProcessRequest{
		RequestID: "req-1",
		FileName:  "art.png",
		MediaType: "image/png",
		Payload:   []byte("png-bytes"),
		DPI:       300,
		Upscale:   2,
		Mockups:   true,
	}
}

func TestProcessSendsMultipartForm(t *testing.T) {
	var gotFields map[string]string
	var gotFile []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/process" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		gotFields = map[string]string{}
		for name := range r.MultipartForm.Value {
			gotFields[name] = r.FormValue(name)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "art.png" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		buf := make([]byte, header.Size)
		file.Read(buf) //nolint:errcheck
		gotFile = buf

		w.Header().Set("Content-Disposition", `attachment; filename=package.zip`)
		w.Write([]byte("zip-bytes")) //nolint:errcheck
	}))
	defer server.Close()

	client := studio.NewClient(server.URL, time.Minute, nil)
	bundle, err := client.Process(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if bundle.Filename != "package.zip" {
		t.Fatalf("expected suggested filename, got %q", bundle.Filename)
	}
	if string(bundle.Data) != "zip-bytes" {
		t.Fatalf("unexpected bundle data %q", bundle.Data)
	}
	if string(gotFile) != "png-bytes" {
		t.Fatalf("unexpected uploaded payload %q", gotFile)
	}
	want := map[string]string{
		"dpi": "300", "enhance": "false", "upscale": "2",
		"mockups": "true", "video": "false", "texts": "false",
		"request_id": "req-1",
	}
	for name, value := range want {
		if gotFields[name] != value {
			t.Fatalf("field %s: expected %q, got %q", name, value, gotFields[name])
		}
	}
}

func TestProcessMapsCancelledStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(studio.StatusCancelled)
	}))
	defer server.Close()

	client := studio.NewClient(server.URL, time.Minute, nil)
	_, err := client.Process(context.Background(), sampleRequest())
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestProcessMapsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := studio.NewClient(server.URL, time.Minute, nil)
	_, err := client.Process(ctx, sampleRequest())
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected ErrCancelled on context cancel, got %v", err)
	}
}

func TestProcessSurfacesFailureDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "enhance failed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := studio.NewClient(server.URL, time.Minute, nil)
	_, err := client.Process(context.Background(), sampleRequest())
	if !errors.Is(err, services.ErrRequest) {
		t.Fatalf("expected ErrRequest, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "enhance failed") {
		t.Fatalf("expected backend detail in error, got %q", got)
	}
}

func TestProcessRejectsEmptyPayload(t *testing.T) {
	client := studio.NewClient("http://127.0.0.1:0", time.Minute, nil)
	if _, err := client.Process(context.Background(), studio.ProcessRequest{}); !errors.Is(err, services.ErrRequest) {
		t.Fatalf("expected ErrRequest, got %v", err)
	}
}

func TestAbortPostsToCancelEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
	}))
	defer server.Close()

	client := studio.NewClient(server.URL, time.Minute, nil)
	if err := client.Abort(context.Background(), "req-9"); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	if gotPath != "/api/cancel/req-9" {
		t.Fatalf("unexpected abort path %q", gotPath)
	}
}
