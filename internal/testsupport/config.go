package testsupport

import (
	"path/filepath"
	"testing"

	"atelier/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Studio.BaseURL = "http://127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithMaxRunning overrides the concurrency ceiling on the test config.
func WithMaxRunning(n int) ConfigOption {
	return func(c *config.Config) {
		c.Workflow.MaxRunning = n
	}
}

// WithStudioURL points the test config at a fake backend.
func WithStudioURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Studio.BaseURL = url
	}
}

// WithEtsy enables publishing against the provided shop and taxonomy ids.
func WithEtsy(shopID, taxonomyID string) ConfigOption {
	return func(c *config.Config) {
		c.Etsy.Enabled = true
		c.Etsy.ShopID = shopID
		c.Etsy.TaxonomyID = taxonomyID
	}
}
