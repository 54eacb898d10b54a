package workflow

import "time"

// JobStatus reports a job's schedule and latest run.
type JobStatus struct {
	Name      string
	Interval  time.Duration
	Scheduled bool
	Runs      int
	Failures  int
	LastRun   time.Time
	LastTook  time.Duration
	LastError string
}

// StatusSummary is a snapshot of the manager.
type StatusSummary struct {
	Running bool
	Jobs    []JobStatus
}

// Status returns a snapshot of every registered job in registration order.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	summary := StatusSummary{Running: m.running, Jobs: make([]JobStatus, 0, len(m.jobs))}
	for _, state := range m.jobs {
		js := JobStatus{
			Name:      state.job.Name,
			Interval:  state.job.Interval,
			Scheduled: m.running && state.scheduled,
			Runs:      state.runs,
			Failures:  state.failures,
			LastRun:   state.lastRun,
			LastTook:  state.lastTook,
		}
		if state.lastErr != nil {
			js.LastError = state.lastErr.Error()
		}
		summary.Jobs = append(summary.Jobs, js)
	}
	return summary
}
