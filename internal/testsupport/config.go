package testsupport

import (
	"path/filepath"
	"testing"

	"pricingboard/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.BlobDir = filepath.Join(base, "blobs")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Paths.PublicURL = "http://board.test"
	cfgVal.Notifications.BoardURL = "http://board.test/"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithNtfy points notifications at an ntfy endpoint, typically an httptest server.
func WithNtfy(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.Provider = "ntfy"
		b.cfg.Notifications.NtfyTopic = endpoint
	}
}

// WithWebhook points notifications at a webhook endpoint.
func WithWebhook(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.Provider = "webhook"
		b.cfg.Notifications.WebhookURL = endpoint
	}
}

// WithRetentionDays overrides the archive retention window.
func WithRetentionDays(days int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.RetentionDays = days
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
