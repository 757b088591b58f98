package main

import (
	"fmt"
	"strings"
	"sync"

	"vibe-transcode-service/pkg/config"
)

type commandContext struct {
	configFlag *string
	serverFlag *string

	once sync.Once
	cfg  *config.Config
	err  error
}

func newCommandContext(configFlag, serverFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, serverFlag: serverFlag}
}

// config loads the configuration once; an empty path yields defaults plus
// VIBE_* environment overrides.
func (c *commandContext) config() (*config.Config, error) {
	c.once.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.cfg, c.err = config.Load(path)
		if c.err != nil {
			c.err = fmt.Errorf("load config: %w", c.err)
		}
	})
	return c.cfg, c.err
}

func (c *commandContext) serverURL() (string, error) {
	if c.serverFlag != nil && strings.TrimSpace(*c.serverFlag) != "" {
		return strings.TrimRight(strings.TrimSpace(*c.serverFlag), "/"), nil
	}
	cfg, err := c.config()
	if err != nil {
		return "", err
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port), nil
}
