package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"pricingboard/internal/access"
	"pricingboard/internal/attachments"
	"pricingboard/internal/board"
	"pricingboard/internal/logging"
	"pricingboard/internal/notifications"
)

// NewTask is a creation request. File is required.
type NewTask struct {
	Title    string
	DueDate  *time.Time
	FileName string
	File     io.Reader
}

// Create uploads the task's first attachment into raw and then inserts the
// task at the end of raw. Nothing is persisted if the upload fails; if the
// insert fails the uploaded blob is released.
func (e *Engine) Create(ctx context.Context, actor access.Identity, req NewTask) (*board.Task, error) {
	if !e.table.CanCreate(actor.Role) {
		return nil, access.Deny(actor.Role, "create tasks", "", "")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if req.File == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTask, attachments.ErrRequired)
	}

	release, err := e.guard.Acquire(guardKey("create", actor.UserID, titleKey(title)))
	if err != nil {
		return nil, err
	}
	defer release()

	att, err := e.files.Upload(ctx, board.StageRaw, req.FileName, req.File)
	if err != nil {
		return nil, err
	}
	task := &board.Task{
		Title:       title,
		CreatedBy:   actor.Name(),
		Status:      board.StageRaw,
		Attachments: []board.Attachment{att},
	}
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		task.DueDate = &due
	}
	created, err := e.store.CreateTask(ctx, task)
	if err != nil {
		if _, relErr := e.files.Release(ctx, task.Attachments); relErr != nil {
			err = errors.Join(err, relErr)
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	ctx = logging.WithTaskID(ctx, created.ID)
	logging.WithContext(ctx, e.logger).Info("task created",
		logging.String(logging.FieldActor, actor.Name()),
		logging.String("title", created.Title),
	)
	e.emit(notifications.EventTaskCreated, created, actor, "")
	return created, nil
}

// titleKey folds case and whitespace so resubmits of one create collide.
func titleKey(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// BeginEdit opens an attachment edit session for taskID.
func (e *Engine) BeginEdit(ctx context.Context, actor access.Identity, taskID string) (*attachments.EditSession, error) {
	return e.files.BeginEdit(ctx, actor, taskID)
}

// Edit commits session with changes. Concurrent commits of the same task by
// the same actor are rejected with ErrBusy.
func (e *Engine) Edit(ctx context.Context, actor access.Identity, session *attachments.EditSession, changes attachments.Changes) (attachments.CommitResult, error) {
	if session == nil {
		return attachments.CommitResult{}, fmt.Errorf("%w: no edit session", ErrInvalidTask)
	}
	release, err := e.guard.Acquire(guardKey("edit", actor.UserID, session.TaskID))
	if err != nil {
		return attachments.CommitResult{}, err
	}
	defer release()

	res, err := e.files.Commit(ctx, actor, session, changes)
	if err != nil {
		return res, err
	}
	if res.Task != nil {
		logging.WithContext(logging.WithTaskID(ctx, res.Task.ID), e.logger).Info("task edited",
			logging.String(logging.FieldActor, actor.Name()),
			logging.Int("attachments", len(res.Task.Attachments)),
			logging.Int("unreleased", len(res.Unreleased)),
		)
	}
	return res, nil
}

// RemoveResult reports a removal.
type RemoveResult struct {
	Outcome Outcome
	// Unreleased lists attachments still on the task after a partial release.
	Unreleased []board.Attachment
}

// Remove releases every attachment blob and then deletes the task record.
// When any blob cannot be released the record is kept with only the
// unreleased attachments and an error matching attachments.ErrReleaseFailed
// is returned. Removing an absent task is a stale no-op.
func (e *Engine) Remove(ctx context.Context, actor access.Identity, taskID string, confirmed bool) (RemoveResult, error) {
	if !confirmed {
		return RemoveResult{}, ErrConfirmationRequired
	}
	task, err := e.store.GetTask(ctx, taskID)
	if errors.Is(err, board.ErrNotFound) {
		return RemoveResult{Outcome: OutcomeStale}, nil
	}
	if err != nil {
		return RemoveResult{}, err
	}
	if !e.table.CanRemove(actor.Role, task.Status) {
		return RemoveResult{}, access.Deny(actor.Role, "remove", task.Status, "")
	}

	release, err := e.guard.Acquire(guardKey("remove", actor.UserID, taskID))
	if err != nil {
		return RemoveResult{}, err
	}
	defer release()

	ctx = logging.WithTaskID(ctx, taskID)
	logger := logging.WithContext(ctx, e.logger)
	failed, relErr := e.files.Release(ctx, task.Attachments)
	if len(failed) > 0 {
		task.Attachments = failed
		if err := e.store.UpdateTask(ctx, task); err != nil && !errors.Is(err, board.ErrNotFound) {
			relErr = errors.Join(relErr, err)
		}
		return RemoveResult{Unreleased: failed}, fmt.Errorf("remove task %s: %w", taskID, relErr)
	}

	removed, err := e.store.DeleteTask(ctx, taskID)
	if err != nil {
		return RemoveResult{}, err
	}
	if !removed {
		return RemoveResult{Outcome: OutcomeStale}, nil
	}
	logger.Info("task removed",
		logging.String(logging.FieldActor, actor.Name()),
		logging.Int("attachments", len(task.Attachments)),
	)
	return RemoveResult{Outcome: OutcomeRemoved}, nil
}
