package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeArchive()
	c.normalizeBlobs()
	c.normalizeLogging()
	if c.Telemetry.ExportInterval <= 0 {
		c.Telemetry.ExportInterval = defaultTelemetryExportSeconds
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BlobDir) == "" {
		c.Paths.BlobDir = defaultBlobDir
	}
	if c.Paths.BlobDir, err = expandPath(c.Paths.BlobDir); err != nil {
		return fmt.Errorf("paths.blob_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.PublicURL = strings.TrimRight(strings.TrimSpace(c.Paths.PublicURL), "/")
	if c.Paths.PublicURL == "" {
		c.Paths.PublicURL = "http://" + c.Paths.APIBind
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	n := &c.Notifications
	n.WebhookURL = strings.TrimSpace(n.WebhookURL)
	if n.WebhookURL == "" {
		if value, ok := os.LookupEnv("BOARD_WEBHOOK_URL"); ok {
			n.WebhookURL = strings.TrimSpace(value)
		}
	}
	n.NtfyTopic = strings.TrimSpace(n.NtfyTopic)
	if n.NtfyTopic == "" {
		if value, ok := os.LookupEnv("BOARD_NTFY_TOPIC"); ok {
			n.NtfyTopic = strings.TrimSpace(value)
		}
	}
	n.Provider = strings.ToLower(strings.TrimSpace(n.Provider))
	if n.Provider == "" {
		switch {
		case n.WebhookURL != "":
			n.Provider = "webhook"
		case n.NtfyTopic != "":
			n.Provider = "ntfy"
		}
	}
	if n.RequestTimeout <= 0 {
		n.RequestTimeout = defaultNotifyTimeout
	}
	n.BoardURL = strings.TrimSpace(n.BoardURL)
	if n.BoardURL == "" {
		n.BoardURL = defaultBoardURL
	}
}

func (c *Config) normalizeArchive() {
	if c.Archive.RetentionDays <= 0 {
		c.Archive.RetentionDays = defaultRetentionDays
	}
	if c.Archive.SweepInterval <= 0 {
		c.Archive.SweepInterval = defaultSweepInterval
	}
}

func (c *Config) normalizeBlobs() {
	if c.Blobs.OrphanSweepInterval < 0 {
		c.Blobs.OrphanSweepInterval = 0
	}
	if c.Blobs.OrphanGrace <= 0 {
		c.Blobs.OrphanGrace = defaultOrphanGrace
	}
	if c.Blobs.MaxUploadMiB <= 0 {
		c.Blobs.MaxUploadMiB = defaultMaxUploadMiB
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
