// Package daemonrun hosts the foreground daemon runtime shared by boardd and
// the "board daemon" command.
package daemonrun

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"pricingboard/internal/config"
	"pricingboard/internal/daemon"
	"pricingboard/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured level when set.
	LogLevel string
}

// Run starts the pricing board daemon and blocks until ctx is cancelled or
// the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	ctx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	services, err := daemon.NewServices(cfg, logger)
	if err != nil {
		return err
	}
	d, err := daemon.New(cfg, services, logger)
	if err != nil {
		_ = services.Close(context.Background())
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Error("daemon shutdown", logging.Error(err))
		}
	}()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	logger.Info("pricing board ready",
		logging.String("database", cfg.DatabasePath()),
		logging.String("blobs", cfg.Paths.BlobDir),
		logging.String("api", d.Addr()),
	)

	<-ctx.Done()
	logger.Info("pricing board shutting down")
	return nil
}
