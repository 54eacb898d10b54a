package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"pricingboard/internal/board"
	"pricingboard/internal/config"
	"pricingboard/internal/logging"
	"pricingboard/internal/preflight"
	"pricingboard/internal/workflow"
)

// ErrAlreadyRunning indicates another daemon holds the lock.
var ErrAlreadyRunning = errors.New("another pricing board daemon instance is already running")

// Daemon coordinates the background jobs and the HTTP API and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	services *Services
	workflow *workflow.Manager
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	Counts       map[board.Stage]int
	Workflow     workflow.StatusSummary
	Checks       []preflight.Result
}

// New constructs a daemon over services and registers the board's background jobs.
func New(cfg *config.Config, services *Services, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || services == nil || logger == nil {
		return nil, errors.New("daemon requires config, services, and logger")
	}
	wf := workflow.NewManager(logger)
	if err := workflow.RegisterBoardJobs(wf, cfg, services.Archive, services.Files); err != nil {
		return nil, fmt.Errorf("register jobs: %w", err)
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		services: services,
		workflow: wf,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, runs preflight checks, and launches the
// background jobs and the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	if failed := preflight.Failed(preflight.RunAll(ctx, d.cfg, d.services.Store)); len(failed) > 0 {
		_ = d.lock.Unlock()
		return fmt.Errorf("preflight: %s: %s", failed[0].Name, failed[0].Detail)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.workflow.Stop()
		d.abortStart()
		return err
	}

	d.running.Store(true)
	d.logger.Info("pricing board daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
	)
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background jobs and the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock",
			logging.String("lock", d.lockPath),
			logging.Error(err),
			logging.ErrorHint("remove the lock file if no daemon is running"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("pricing board daemon stopped")
}

// Close stops the daemon and releases the services it owns.
func (d *Daemon) Close() error {
	d.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.services.Close(ctx)
}

// Services returns the wired board components.
func (d *Daemon) Services() *Services {
	return d.services
}

// Addr returns the API listener address once started.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	counts, err := d.services.Store.Count(ctx)
	if err != nil {
		d.logger.Debug("stage counts unavailable", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		Counts:       counts,
		Workflow:     d.workflow.Status(),
		Checks:       preflight.RunAll(ctx, d.cfg, d.services.Store),
	}
}
