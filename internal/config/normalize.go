package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStudio()
	c.normalizeWorkflow()
	c.normalizeEtsy()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStudio() {
	c.Studio.BaseURL = strings.TrimRight(strings.TrimSpace(c.Studio.BaseURL), "/")
	if c.Studio.BaseURL == "" {
		c.Studio.BaseURL = defaultStudioBaseURL
	}
	if c.Studio.RequestTimeout <= 0 {
		c.Studio.RequestTimeout = defaultStudioTimeout
	}
	if c.Studio.ProgressTimeout <= 0 {
		c.Studio.ProgressTimeout = defaultProgressTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.MaxRunning <= 0 {
		c.Workflow.MaxRunning = defaultMaxRunning
	}
	if c.Workflow.MaxUploadMiB <= 0 {
		c.Workflow.MaxUploadMiB = defaultMaxUploadMiB
	}
}

func (c *Config) normalizeEtsy() {
	c.Etsy.ShopID = strings.TrimSpace(c.Etsy.ShopID)
	c.Etsy.TaxonomyID = strings.TrimSpace(c.Etsy.TaxonomyID)
	if strings.TrimSpace(c.Etsy.Price) == "" {
		c.Etsy.Price = defaultEtsyPrice
	}
	if strings.TrimSpace(c.Etsy.Quantity) == "" {
		c.Etsy.Quantity = defaultEtsyQuantity
	}
	c.Etsy.Orientation = strings.ToLower(strings.TrimSpace(c.Etsy.Orientation))
	if c.Etsy.Orientation == "" {
		c.Etsy.Orientation = defaultEtsyOrientation
	}
	if strings.TrimSpace(c.Etsy.PiecesIncluded) == "" {
		c.Etsy.PiecesIncluded = defaultEtsyPiecesIncluded
	}
	if c.Etsy.RequestTimeout <= 0 {
		c.Etsy.RequestTimeout = defaultEtsyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
