package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
}

// Studio contains configuration for the processing backend.
type Studio struct {
	BaseURL         string `toml:"base_url"`
	RequestTimeout  int    `toml:"request_timeout"`
	ProgressTimeout int    `toml:"progress_timeout"`
}

// Workflow contains orchestrator admission and upload limits.
type Workflow struct {
	MaxRunning   int   `toml:"max_running"`
	MaxUploadMiB int64 `toml:"max_upload_mib"`
}

// Processing contains default processing options applied to submitted jobs.
type Processing struct {
	DPI     int  `toml:"dpi"`
	Enhance bool `toml:"enhance"`
	Upscale int  `toml:"upscale"`
	Mockups bool `toml:"mockups"`
	Video   bool `toml:"video"`
	Texts   bool `toml:"texts"`
}

// Etsy contains marketplace publishing defaults.
type Etsy struct {
	Enabled        bool   `toml:"enabled"`
	ShopID         string `toml:"shop_id"`
	TaxonomyID     string `toml:"taxonomy_id"`
	Price          string `toml:"price"`
	Quantity       string `toml:"quantity"`
	Materials      string `toml:"materials"`
	Orientation    string `toml:"orientation"`
	PiecesIncluded string `toml:"pieces_included"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for atelier.
//
// Configuration sections by subsystem:
//   - Paths: staging, data, and log directories
//   - Studio: processing backend endpoint and timeouts
//   - Workflow: concurrency ceiling and upload size limit
//   - Processing: default per-job processing options
//   - Etsy: marketplace publish defaults
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Studio     Studio     `toml:"studio"`
	Workflow   Workflow   `toml:"workflow"`
	Processing Processing `toml:"processing"`
	Etsy       Etsy       `toml:"etsy"`
	Logging    Logging    `toml:"logging"`
}

// MaxUploadBytes returns the submission size ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Workflow.MaxUploadMiB << 20
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/atelier/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("atelier.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for a run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return "", fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat config: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return expanded, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
