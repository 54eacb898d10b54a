package workflow

import (
	"context"
	"time"

	"pricingboard/internal/archive"
	"pricingboard/internal/attachments"
	"pricingboard/internal/config"
)

// Job names registered by RegisterBoardJobs.
const (
	JobArchiveSweep = "archive-sweep"
	JobOrphanSweep  = "orphan-sweep"
)

// ArchiveSweepJob runs the retention sweep every interval.
func ArchiveSweepJob(svc *archive.Service, interval time.Duration) Job {
	return Job{
		Name:     JobArchiveSweep,
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := svc.Sweep(ctx)
			return err
		},
	}
}

// OrphanSweepJob deletes unreferenced blobs older than grace every interval.
func OrphanSweepJob(files *attachments.Manager, grace, interval time.Duration) Job {
	return Job{
		Name:     JobOrphanSweep,
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := files.SweepOrphans(ctx, grace, time.Now())
			return err
		},
	}
}

// RegisterBoardJobs registers the archive and orphan sweeps using cfg's
// intervals. A disabled archive keeps its job registered but unscheduled so
// it can still be run by hand.
func RegisterBoardJobs(m *Manager, cfg *config.Config, svc *archive.Service, files *attachments.Manager) error {
	archiveInterval := cfg.SweepInterval()
	if !cfg.Archive.Enabled {
		archiveInterval = 0
	}
	if err := m.Register(ArchiveSweepJob(svc, archiveInterval)); err != nil {
		return err
	}
	return m.Register(OrphanSweepJob(files, cfg.OrphanGrace(), cfg.OrphanSweepInterval()))
}
