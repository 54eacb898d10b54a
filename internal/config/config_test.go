package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"pricingboard/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BOARD_WEBHOOK_URL", "")
	t.Setenv("BOARD_NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "pricingboard")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.BlobDir != filepath.Join(wantData, "blobs") {
		t.Fatalf("unexpected blob dir: %q", cfg.Paths.BlobDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7390" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Paths.PublicURL != "http://127.0.0.1:7390" {
		t.Fatalf("unexpected public url: %q", cfg.Paths.PublicURL)
	}
	if cfg.Notifications.Provider != "" {
		t.Fatalf("expected notifications disabled by default, got provider %q", cfg.Notifications.Provider)
	}
	if cfg.RetentionWindow() != 7*24*time.Hour {
		t.Fatalf("unexpected retention window: %s", cfg.RetentionWindow())
	}
	if cfg.SweepInterval() != time.Hour {
		t.Fatalf("unexpected sweep interval: %s", cfg.SweepInterval())
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "board.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("BOARD_WEBHOOK_URL", "")
	t.Setenv("BOARD_NTFY_TOPIC", "")

	configPath := filepath.Join(tempHome, "config.toml")
	custom := config.Default()
	custom.Paths.DataDir = "~/board-data"
	custom.Paths.BlobDir = "~/board-blobs"
	custom.Notifications.Provider = "ntfy"
	custom.Notifications.NtfyTopic = "https://ntfy.example/board"
	custom.Archive.RetentionDays = 14
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "board-data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Notifications.Provider != "ntfy" {
		t.Fatalf("unexpected provider: %q", cfg.Notifications.Provider)
	}
	if cfg.RetentionWindow() != 14*24*time.Hour {
		t.Fatalf("unexpected retention window: %s", cfg.RetentionWindow())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadUsesEnvironmentWebhook(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOARD_WEBHOOK_URL", "https://hooks.example/abc")
	t.Setenv("BOARD_NTFY_TOPIC", "")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.Provider != "webhook" {
		t.Fatalf("expected provider inferred from env, got %q", cfg.Notifications.Provider)
	}
	if cfg.Notifications.WebhookURL != "https://hooks.example/abc" {
		t.Fatalf("unexpected webhook url: %q", cfg.Notifications.WebhookURL)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOARD_WEBHOOK_URL", "")
	t.Setenv("BOARD_NTFY_TOPIC", "")
	os.Unsetenv("BOARD_NTFY_TOPIC")
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BOARD_NTFY_TOPIC=https://ntfy.example/dotenv\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("BOARD_NTFY_TOPIC") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/dotenv" {
		t.Fatalf("expected topic from .env, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Notifications.Provider != "ntfy" {
		t.Fatalf("unexpected provider: %q", cfg.Notifications.Provider)
	}
}

func TestValidateRejectsBadNotifications(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name: "webhook without url",
			mutate: func(c *config.Config) {
				c.Notifications.Provider = "webhook"
			},
			wantErr: "notifications.webhook_url",
		},
		{
			name: "ntfy without topic",
			mutate: func(c *config.Config) {
				c.Notifications.Provider = "ntfy"
			},
			wantErr: "notifications.ntfy_topic",
		},
		{
			name: "unknown provider",
			mutate: func(c *config.Config) {
				c.Notifications.Provider = "pager"
			},
			wantErr: "unsupported value",
		},
		{
			name: "non-http webhook",
			mutate: func(c *config.Config) {
				c.Notifications.Provider = "webhook"
				c.Notifications.WebhookURL = "ftp://example.com/hook"
			},
			wantErr: "expected http(s) URL",
		},
		{
			name: "bad log level",
			mutate: func(c *config.Config) {
				c.Logging.Level = "verbose"
			},
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DataDir = "/tmp/board"
			cfg.Paths.BlobDir = "/tmp/board/blobs"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateRejectsSharedBlobDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/board"
	cfg.Paths.BlobDir = "/tmp/board"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when blob dir equals data dir")
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.BlobDir = filepath.Join(base, "data", "blobs")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.BlobDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOARD_WEBHOOK_URL", "")
	t.Setenv("BOARD_NTFY_TOPIC", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Archive.RetentionDays != 7 {
		t.Fatalf("unexpected retention: %d", cfg.Archive.RetentionDays)
	}
}

func TestExpandPathHandlesTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/boards")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "boards") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
