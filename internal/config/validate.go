package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.BlobDir == "" {
		return errors.New("paths.blob_dir must be set")
	}
	if c.Paths.BlobDir == c.Paths.DataDir {
		return errors.New("paths.blob_dir must differ from paths.data_dir")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	switch n.Provider {
	case "":
		return nil
	case "webhook":
		if n.WebhookURL == "" {
			return errors.New("notifications.webhook_url must be set when notifications.provider is \"webhook\" (or export BOARD_WEBHOOK_URL)")
		}
		if err := validateHTTPURL(n.WebhookURL); err != nil {
			return fmt.Errorf("notifications.webhook_url: %w", err)
		}
	case "ntfy":
		if n.NtfyTopic == "" {
			return errors.New("notifications.ntfy_topic must be set when notifications.provider is \"ntfy\" (or export BOARD_NTFY_TOPIC)")
		}
		if err := validateHTTPURL(n.NtfyTopic); err != nil {
			return fmt.Errorf("notifications.ntfy_topic: %w", err)
		}
	default:
		return fmt.Errorf("notifications.provider: unsupported value %q (want webhook or ntfy)", n.Provider)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("expected http(s) URL, got %q", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
