package main

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"atelier/internal/config"
	"atelier/internal/services/etsy"
	"atelier/internal/services/studio"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) studioClient(cfg *config.Config) *studio.Client {
	return studio.NewClient(cfg.Studio.BaseURL,
		time.Duration(cfg.Studio.RequestTimeout)*time.Second, nil)
}

func (c *commandContext) etsyClient(cfg *config.Config) *etsy.Client {
	return etsy.NewClient(cfg.Studio.BaseURL,
		time.Duration(cfg.Etsy.RequestTimeout)*time.Second, nil)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
