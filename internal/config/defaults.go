package config

const (
	defaultDataDir                = "~/.local/share/pricingboard"
	defaultBlobDir                = "~/.local/share/pricingboard/blobs"
	defaultLogDir                 = "~/.local/share/pricingboard/logs"
	defaultAPIBind                = "127.0.0.1:7390"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultNotifyTimeout          = 10
	defaultBoardURL               = "http://127.0.0.1:7390/"
	defaultRetentionDays          = 7
	defaultSweepInterval          = 3600
	defaultOrphanSweepInterval    = 21600
	defaultOrphanGrace            = 3600
	defaultMaxUploadMiB           = 64
	defaultTelemetryExportSeconds = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			BlobDir: defaultBlobDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			BoardURL:       defaultBoardURL,
			Created:        true,
			Transitions:    true,
			Archive:        true,
		},
		Archive: Archive{
			Enabled:       true,
			RetentionDays: defaultRetentionDays,
			SweepInterval: defaultSweepInterval,
		},
		Blobs: Blobs{
			OrphanSweepInterval: defaultOrphanSweepInterval,
			OrphanGrace:         defaultOrphanGrace,
			MaxUploadMiB:        defaultMaxUploadMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Telemetry: Telemetry{
			ExportInterval: defaultTelemetryExportSeconds,
		},
	}
}
