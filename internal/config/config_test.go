package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atelier/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Workflow.MaxRunning != 3 {
		t.Fatalf("expected default max_running=3, got %d", cfg.Workflow.MaxRunning)
	}
	if cfg.Processing.DPI != 300 {
		t.Fatalf("expected default dpi=300, got %d", cfg.Processing.DPI)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[studio]
base_url = "http://studio.local:9000/"

[workflow]
max_running = 5

[etsy]
enabled = true
shop_id = "123"
taxonomy_id = "456"
orientation = "Horizontal"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatal("expected config file to be found")
	}
	if cfg.Studio.BaseURL != "http://studio.local:9000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Studio.BaseURL)
	}
	if cfg.Workflow.MaxRunning != 5 {
		t.Fatalf("expected max_running=5, got %d", cfg.Workflow.MaxRunning)
	}
	if cfg.Etsy.Orientation != "horizontal" {
		t.Fatalf("expected orientation lowercased, got %q", cfg.Etsy.Orientation)
	}
}

func TestValidateRejectsBadUpscale(t *testing.T) {
	cfg := config.Default()
	cfg.Processing.Upscale = 3
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "upscale") {
		t.Fatalf("expected upscale validation error, got %v", err)
	}
}

func TestValidateEtsyRequiresIDs(t *testing.T) {
	cfg := config.Default()
	cfg.Etsy.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when etsy enabled without ids")
	}
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := config.Default()
	cfg.Workflow.MaxUploadMiB = 2
	if got := cfg.MaxUploadBytes(); got != 2<<20 {
		t.Fatalf("expected 2 MiB in bytes, got %d", got)
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
