package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	BlobDir   string `toml:"blob_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	PublicURL string `toml:"public_url"`
}

// Notifications contains configuration for outbound stage-change announcements.
type Notifications struct {
	Provider       string `toml:"provider"`
	WebhookURL     string `toml:"webhook_url"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	BoardURL       string `toml:"board_url"`
	Created        bool   `toml:"created"`
	Transitions    bool   `toml:"transitions"`
	Archive        bool   `toml:"archive"`
}

// Archive contains configuration for the done → archive retention sweep.
type Archive struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
	SweepInterval int  `toml:"sweep_interval"`
}

// Blobs contains configuration for attachment storage.
type Blobs struct {
	OrphanSweepInterval int `toml:"orphan_sweep_interval"`
	OrphanGrace         int `toml:"orphan_grace"`
	MaxUploadMiB        int `toml:"max_upload_mib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Telemetry contains configuration for OpenTelemetry metrics.
type Telemetry struct {
	Enabled        bool `toml:"enabled"`
	Stdout         bool `toml:"stdout"`
	ExportInterval int  `toml:"export_interval"`
}

// Config encapsulates all configuration values for the pricing board.
//
// Configuration sections by subsystem:
//   - Paths: database, blob, and log directories plus the API bind address
//   - Notifications: webhook/ntfy announcement settings
//   - Archive: retention sweep moving done tasks into the archive
//   - Blobs: orphan sweep and upload limits
//   - Logging: log format and level
//   - Telemetry: metric export
type Config struct {
	Paths         Paths         `toml:"paths"`
	Notifications Notifications `toml:"notifications"`
	Archive       Archive       `toml:"archive"`
	Blobs         Blobs         `toml:"blobs"`
	Logging       Logging       `toml:"logging"`
	Telemetry     Telemetry     `toml:"telemetry"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pricingboard/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads ./.env when present. Variables already set in the
// environment win over the file.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pricingboard.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon and CLI operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.BlobDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the board database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "board.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "boardd.lock")
}

// LogPath returns the daemon log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "board.log")
}

// RetentionWindow is how long a task may sit in done before the sweep archives it.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.Archive.RetentionDays) * 24 * time.Hour
}

// SweepInterval is the period of the automatic archive sweep.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Archive.SweepInterval) * time.Second
}

// OrphanSweepInterval is the period of the orphaned blob sweep. Zero disables it.
func (c *Config) OrphanSweepInterval() time.Duration {
	return time.Duration(c.Blobs.OrphanSweepInterval) * time.Second
}

// OrphanGrace is the minimum age of an unreferenced blob before it is removed.
func (c *Config) OrphanGrace() time.Duration {
	return time.Duration(c.Blobs.OrphanGrace) * time.Second
}

// MaxUploadBytes is the per-file upload ceiling.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Blobs.MaxUploadMiB) << 20
}

// NotificationTimeout bounds a single outbound notification request.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
