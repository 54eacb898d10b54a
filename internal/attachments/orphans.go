package attachments

import (
	"context"
	"fmt"
	"time"

	"pricingboard/internal/logging"
)

// OrphanReport summarizes an orphan sweep.
type OrphanReport struct {
	Scanned int
	Removed int
	Failed  int
}

// SweepOrphans deletes blobs no task references that are older than grace.
// The grace window keeps uploads whose owning write has not landed yet.
func (m *Manager) SweepOrphans(ctx context.Context, grace time.Duration, now time.Time) (OrphanReport, error) {
	entries, err := m.blobs.List(ctx)
	if err != nil {
		return OrphanReport{}, fmt.Errorf("list blobs: %w", err)
	}
	refs, err := m.store.ReferencedLocations(ctx)
	if err != nil {
		return OrphanReport{}, fmt.Errorf("load references: %w", err)
	}

	report := OrphanReport{Scanned: len(entries)}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := refs[entry.Location]; ok {
			continue
		}
		if now.Sub(entry.ModTime) < grace {
			continue
		}
		if err := m.blobs.Delete(ctx, entry.Location); err != nil {
			report.Failed++
			logging.WarnWithContext(m.logger, "orphan blob delete failed", "orphan_delete_failed",
				logging.String("location", entry.Location),
				logging.ErrorHint("check blob_dir permissions"),
				logging.Error(err),
			)
			continue
		}
		report.Removed++
	}
	if report.Failed > 0 {
		m.metrics.BlobReleaseFailed(ctx, report.Failed)
	}
	if report.Removed > 0 || report.Failed > 0 {
		m.logger.Info("orphan sweep finished",
			logging.Int("scanned", report.Scanned),
			logging.Int("removed", report.Removed),
			logging.Int("failed", report.Failed),
		)
	}
	return report, nil
}
