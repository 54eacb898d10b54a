package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"pricingboard/internal/access"
	"pricingboard/internal/blobstore"
	"pricingboard/internal/board"
	"pricingboard/internal/logging"
	"pricingboard/internal/telemetry"
)

var (
	// ErrUploadFailed indicates a blob upload did not complete. Nothing that
	// depended on it was persisted.
	ErrUploadFailed = errors.New("attachment upload failed")
	// ErrRequired indicates an operation that needs a file was given none.
	ErrRequired = errors.New("attachment required")
	// ErrReleaseFailed indicates one or more blobs could not be deleted.
	ErrReleaseFailed = errors.New("attachment release failed")
)

const releaseConcurrency = 8

// Blobs is the blob store surface the manager uses.
type Blobs interface {
	Upload(ctx context.Context, folder, name string, r io.Reader) (blobstore.Object, error)
	Delete(ctx context.Context, location string) error
	Resolve(location string) (string, error)
	List(ctx context.Context) ([]blobstore.Entry, error)
}

// Store is the document store surface the manager uses.
type Store interface {
	GetTask(ctx context.Context, id string) (*board.Task, error)
	UpdateTask(ctx context.Context, task *board.Task) error
	ReferencedLocations(ctx context.Context) (map[string]struct{}, error)
}

// Manager coordinates blob storage with task attachment lists.
type Manager struct {
	store   Store
	blobs   Blobs
	table   *access.Table
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewManager wires a Manager. A nil table uses access.Default().
func NewManager(store Store, blobs Blobs, table *access.Table, metrics *telemetry.Metrics, logger *slog.Logger) *Manager {
	if table == nil {
		table = access.Default()
	}
	return &Manager{
		store:   store,
		blobs:   blobs,
		table:   table,
		metrics: metrics,
		logger:  logging.NewComponentLogger(logger, "attachments"),
	}
}

// Upload writes r to the blob store under folder and returns the attachment
// describing it. The attachment is not added to any task.
func (m *Manager) Upload(ctx context.Context, folder board.Stage, name string, r io.Reader) (board.Attachment, error) {
	if r == nil {
		return board.Attachment{}, ErrRequired
	}
	if !folder.Valid() {
		return board.Attachment{}, fmt.Errorf("%w: invalid folder %q", ErrUploadFailed, folder)
	}
	obj, err := m.blobs.Upload(ctx, string(folder), name, r)
	if err != nil {
		return board.Attachment{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	m.logger.Debug("attachment uploaded",
		logging.String("location", obj.Location),
		logging.Any("size", obj.Size),
		logging.String(logging.FieldStage, string(folder)),
	)
	return board.Attachment{
		Folder:   folder,
		FilePath: obj.Location,
		Name:     blobstore.BaseName(obj.Location),
	}, nil
}

// Release deletes the blobs behind attachments in parallel. Every blob is
// attempted regardless of other failures. The attachments whose blobs could
// not be deleted are returned in their original order together with an error
// matching ErrReleaseFailed.
func (m *Manager) Release(ctx context.Context, attachments []board.Attachment) ([]board.Attachment, error) {
	if len(attachments) == 0 {
		return nil, nil
	}
	errs := make([]error, len(attachments))
	var g errgroup.Group
	g.SetLimit(releaseConcurrency)
	for i, a := range attachments {
		g.Go(func() error {
			if err := m.blobs.Delete(ctx, a.FilePath); err != nil {
				errs[i] = fmt.Errorf("release %s: %w", a.FilePath, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed []board.Attachment
	for i, err := range errs {
		if err != nil {
			failed = append(failed, attachments[i])
		}
	}
	if len(failed) == 0 {
		return nil, nil
	}
	joined := errors.Join(errs...)
	m.metrics.BlobReleaseFailed(ctx, len(failed))
	logging.WarnWithContext(logging.WithContext(ctx, m.logger), "attachment release incomplete", "blob_release_failed",
		logging.Int("failed", len(failed)),
		logging.Int("attempted", len(attachments)),
		logging.ErrorHint("unreleased blobs stay on the task; the orphan sweep retries unreferenced ones"),
		logging.Error(joined),
	)
	return failed, fmt.Errorf("%w: %w", ErrReleaseFailed, joined)
}

// Visible returns the attachments of task that role may see.
func (m *Manager) Visible(role access.Role, task *board.Task) []board.Attachment {
	if task == nil {
		return nil
	}
	return FilterVisible(m.table, role, task.Attachments)
}

// CanView reports whether role may read the blob at location.
func (m *Manager) CanView(role access.Role, location string) bool {
	folder, ok := board.ParseStage(blobstore.Folder(location))
	return ok && m.table.CanViewFolder(role, folder)
}

// Resolve returns a download URL for location.
func (m *Manager) Resolve(location string) (string, error) {
	return m.blobs.Resolve(location)
}

// FilterVisible keeps the attachments whose folder role may view.
func FilterVisible(table *access.Table, role access.Role, attachments []board.Attachment) []board.Attachment {
	out := make([]board.Attachment, 0, len(attachments))
	for _, a := range attachments {
		if table.CanViewFolder(role, a.Folder) {
			out = append(out, a)
		}
	}
	return out
}
