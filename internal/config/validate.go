package config

import (
	"fmt"
	"net/url"
	"strconv"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStudio(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateEtsy(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStudio() error {
	parsed, err := url.Parse(c.Studio.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("studio.base_url must be an absolute URL, got %q", c.Studio.BaseURL)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxRunning > 32 {
		return fmt.Errorf("workflow.max_running must be at most 32, got %d", c.Workflow.MaxRunning)
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if c.Processing.DPI <= 0 {
		return fmt.Errorf("processing.dpi must be positive, got %d", c.Processing.DPI)
	}
	if c.Processing.Upscale != 2 && c.Processing.Upscale != 4 {
		return fmt.Errorf("processing.upscale must be 2 or 4, got %d", c.Processing.Upscale)
	}
	return nil
}

func (c *Config) validateEtsy() error {
	if !c.Etsy.Enabled {
		return nil
	}
	if c.Etsy.ShopID == "" || c.Etsy.TaxonomyID == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/atelier/config.toml"
		}
		return fmt.Errorf("etsy.shop_id and etsy.taxonomy_id are required when etsy.enabled is true. Edit %s (create with 'atelier config init')", defaultPath)
	}
	if _, err := strconv.ParseFloat(c.Etsy.Price, 64); err != nil {
		return fmt.Errorf("etsy.price must be a decimal amount, got %q", c.Etsy.Price)
	}
	if _, err := strconv.Atoi(c.Etsy.Quantity); err != nil {
		return fmt.Errorf("etsy.quantity must be an integer, got %q", c.Etsy.Quantity)
	}
	switch c.Etsy.Orientation {
	case "vertical", "horizontal", "square":
	default:
		return fmt.Errorf("etsy.orientation must be vertical, horizontal, or square, got %q", c.Etsy.Orientation)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
