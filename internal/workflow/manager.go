package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pricingboard/internal/logging"
)

// Job is a periodic background task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Manager schedules registered jobs.
type Manager struct {
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	jobs    []*jobState
	byName  map[string]*jobState
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type jobState struct {
	job    Job
	logger *slog.Logger
	runMu  sync.Mutex

	lastRun   time.Time
	lastErr   error
	runs      int
	failures  int
	lastTook  time.Duration
	scheduled bool
}

// NewManager constructs an idle manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logging.NewComponentLogger(logger, "workflow"),
		now:    time.Now,
		byName: make(map[string]*jobState),
	}
}

// Register adds job. Registration after Start is rejected.
func (m *Manager) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job requires a name and a run func")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if _, dup := m.byName[job.Name]; dup {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	state := &jobState{
		job:    job,
		logger: m.logger.With(logging.String("job", job.Name)),
	}
	m.jobs = append(m.jobs, state)
	m.byName[job.Name] = state
	return nil
}

// Start launches a loop for every enabled job.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	var enabled []*jobState
	for _, state := range m.jobs {
		state.scheduled = state.job.Interval > 0
		if state.scheduled {
			enabled = append(enabled, state)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(len(enabled))
	m.mu.Unlock()

	for _, state := range enabled {
		go m.loop(runCtx, state)
	}
	m.logger.Info("workflow started", logging.Int("jobs", len(enabled)))
	return nil
}

// Stop cancels every loop and waits for in-flight runs to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped")
}

// RunNow runs the named job immediately on the caller's goroutine. Runs of
// the same job never overlap.
func (m *Manager) RunNow(ctx context.Context, name string) error {
	m.mu.RLock()
	state, ok := m.byName[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return m.execute(ctx, state)
}

func (m *Manager) loop(ctx context.Context, state *jobState) {
	defer m.wg.Done()
	ticker := time.NewTicker(state.job.Interval)
	defer ticker.Stop()

	for {
		if err := m.execute(ctx, state); errors.Is(err, context.Canceled) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Manager) execute(ctx context.Context, state *jobState) error {
	state.runMu.Lock()
	defer state.runMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	started := m.now()
	err := state.job.Run(ctx)
	took := m.now().Sub(started)

	m.mu.Lock()
	state.lastRun = started
	state.lastTook = took
	state.lastErr = err
	state.runs++
	if err != nil && !errors.Is(err, context.Canceled) {
		state.failures++
	}
	m.mu.Unlock()

	switch {
	case err == nil:
		state.logger.Debug("job finished", logging.Duration("took", took))
	case errors.Is(err, context.Canceled):
	default:
		logging.WarnWithContext(state.logger, "job failed", "job_failed",
			logging.Duration("took", took),
			logging.ErrorHint("the job runs again on its next interval"),
			logging.Error(err),
		)
	}
	return err
}
