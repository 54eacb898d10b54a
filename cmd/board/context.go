package main

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"pricingboard/internal/config"
	"pricingboard/internal/daemonctl"
)

const tokenEnv = "BOARD_TOKEN"

type commandContext struct {
	configFlag *string
	tokenFlag  *string
	apiFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, tokenFlag, apiFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		tokenFlag:  tokenFlag,
		apiFlag:    apiFlag,
	}
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

func (c *commandContext) token() string {
	if c.tokenFlag != nil {
		if v := strings.TrimSpace(*c.tokenFlag); v != "" {
			return v
		}
	}
	return strings.TrimSpace(os.Getenv(tokenEnv))
}

func (c *commandContext) baseURL() (string, error) {
	if c.apiFlag != nil {
		if v := strings.TrimSpace(*c.apiFlag); v != "" {
			return daemonctl.BaseURL(v), nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return daemonctl.BaseURL(cfg.Paths.PublicURL), nil
}

// client returns an API client. Commands that act on the board need a token.
func (c *commandContext) client(requireToken bool) (*daemonctl.Client, error) {
	base, err := c.baseURL()
	if err != nil {
		return nil, err
	}
	token := c.token()
	if requireToken && token == "" {
		return nil, errors.New("no session token: pass --token or set " + tokenEnv + " (register with `board user register`)")
	}
	return daemonctl.New(base, token), nil
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

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
