package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pricingboard/internal/access"
	"pricingboard/internal/archive"
	"pricingboard/internal/attachments"
	"pricingboard/internal/blobstore"
	"pricingboard/internal/board"
	"pricingboard/internal/config"
	"pricingboard/internal/identity"
	"pricingboard/internal/notifications"
	"pricingboard/internal/pipeline"
	"pricingboard/internal/telemetry"
)

// Services bundles the board components the daemon serves.
type Services struct {
	Store    *board.Store
	Blobs    *blobstore.Store
	Files    *attachments.Manager
	Engine   *pipeline.Engine
	Archive  *archive.Service
	Identity *identity.Provider
	Emitter  *notifications.Emitter
	Metrics  *telemetry.Metrics
}

// NewServices opens storage and wires the board components described by cfg.
func NewServices(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	store, err := board.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open board store: %w", err)
	}
	blobs, err := blobstore.New(cfg.Paths.BlobDir, cfg.Paths.PublicURL, cfg.MaxUploadBytes())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	metrics, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return Assemble(cfg, store, blobs, notifications.NewService(cfg), metrics, logger), nil
}

// Assemble wires components over already opened storage.
func Assemble(cfg *config.Config, store *board.Store, blobs *blobstore.Store, notifier notifications.Service, metrics *telemetry.Metrics, logger *slog.Logger) *Services {
	table := access.Default()
	emitter := notifications.NewEmitter(notifier, logger, cfg.NotificationTimeout())
	files := attachments.NewManager(store, blobs, table, metrics, logger)
	engine := pipeline.NewEngine(store, files, table, emitter, metrics, logger)
	return &Services{
		Store:    store,
		Blobs:    blobs,
		Files:    files,
		Engine:   engine,
		Archive:  archive.NewService(store, engine, emitter, metrics, logger, cfg.RetentionWindow()),
		Identity: identity.NewProvider(store),
		Emitter:  emitter,
		Metrics:  metrics,
	}
}

// Close waits for in-flight notifications, flushes metrics, and closes the store.
func (s *Services) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.Emitter.Wait()
	var errs []error
	if err := s.Metrics.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush metrics: %w", err))
	}
	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
