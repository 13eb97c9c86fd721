package main

import (
	"strings"

	"strobe/internal/config"
)

// commandContext lazily loads configuration shared by subcommands.
type commandContext struct {
	configFlag *string
	apiFlag    *string

	cfg     *config.Config
	cfgPath string
}

func newCommandContext(configFlag, apiFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, apiFlag: apiFlag}
}

func (c *commandContext) configValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, _, err := config.Load(c.configValue())
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = path
	return cfg, nil
}

// apiAddress resolves the daemon API address: flag first, then config.
func (c *commandContext) apiAddress() (string, error) {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return addr, nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Paths.APIBind, nil
}
