// Package telemetry provides OpenTelemetry metrics for the pricing board.
//
// Telemetry is disabled by default; a noop meter is used so instrument calls
// cost nothing. When enabled, a periodic reader exports to stdout (or stderr
// when [telemetry] stdout is false) at the configured interval.
//
// Instruments:
//
//	board.transitions            attrs: result (permitted|denied|stale|conflict), to
//	board.archive.swept          tasks moved to archive by the sweep
//	board.archive.failed         sweep transitions that failed
//	board.blobs.release_failed   blob deletions that failed
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"pricingboard/internal/config"
)

const instrumentationScope = "pricingboard"

// Transition results recorded on board.transitions.
const (
	ResultPermitted = "permitted"
	ResultDenied    = "denied"
	ResultStale     = "stale"
	ResultConflict  = "conflict"
)

// Metrics holds the board's instruments.
type Metrics struct {
	transitions   metric.Int64Counter
	archived      metric.Int64Counter
	archiveFailed metric.Int64Counter
	releaseFailed metric.Int64Counter
	shutdown      func(context.Context) error
}

// New builds metrics from configuration. Disabled telemetry yields Noop().
func New(cfg config.Telemetry) (*Metrics, error) {
	if !cfg.Enabled {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return Noop(), nil
	}
	var out io.Writer = os.Stderr
	if cfg.Stdout {
		out = os.Stdout
	}
	exp, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
	}
	interval := time.Duration(cfg.ExportInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return NewWithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)))
}

// NewWithReader builds metrics on an SDK meter provider using reader.
func NewWithReader(reader sdkmetric.Reader) (*Metrics, error) {
	res := resource.NewSchemaless(attribute.String("service.name", instrumentationScope))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	m, err := build(mp.Meter(instrumentationScope))
	if err != nil {
		_ = mp.Shutdown(context.Background())
		return nil, err
	}
	m.shutdown = mp.Shutdown
	return m, nil
}

// Noop returns metrics whose instruments discard every measurement.
func Noop() *Metrics {
	m, _ := build(metricnoop.NewMeterProvider().Meter(instrumentationScope))
	return m
}

func build(meter metric.Meter) (*Metrics, error) {
	transitions, err := meter.Int64Counter("board.transitions",
		metric.WithDescription("Stage transition attempts by result"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: board.transitions: %w", err)
	}
	archived, err := meter.Int64Counter("board.archive.swept",
		metric.WithDescription("Tasks moved to archive by the retention sweep"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: board.archive.swept: %w", err)
	}
	archiveFailed, err := meter.Int64Counter("board.archive.failed",
		metric.WithDescription("Retention sweep transitions that failed"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: board.archive.failed: %w", err)
	}
	releaseFailed, err := meter.Int64Counter("board.blobs.release_failed",
		metric.WithDescription("Attachment blob deletions that failed"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: board.blobs.release_failed: %w", err)
	}
	return &Metrics{
		transitions:   transitions,
		archived:      archived,
		archiveFailed: archiveFailed,
		releaseFailed: releaseFailed,
	}, nil
}

// Transition records a transition attempt.
func (m *Metrics) Transition(ctx context.Context, result, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
		attribute.String("to", to),
	))
}

// ArchiveSwept records tasks archived by a sweep.
func (m *Metrics) ArchiveSwept(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.archived.Add(ctx, int64(n))
}

// ArchiveFailed records sweep transitions that failed.
func (m *Metrics) ArchiveFailed(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.archiveFailed.Add(ctx, int64(n))
}

// BlobReleaseFailed records blob deletions that failed.
func (m *Metrics) BlobReleaseFailed(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.releaseFailed.Add(ctx, int64(n))
}

// Shutdown flushes pending measurements.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.shutdown == nil {
		return nil
	}
	return m.shutdown(ctx)
}
