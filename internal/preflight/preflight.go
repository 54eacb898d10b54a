package preflight

import (
	"context"

	"pricingboard/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Pinger is satisfied by the board store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunAll executes every preflight check for cfg. db may be nil when the
// store has not been opened yet.
func RunAll(ctx context.Context, cfg *config.Config, db Pinger) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Blob directory", cfg.Paths.BlobDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if db != nil {
		results = append(results, CheckDatabase(ctx, db))
	}
	results = append(results, CheckNotifications(ctx, cfg.Notifications))
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
