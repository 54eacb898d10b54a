package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pricingboard/internal/access"
	"pricingboard/internal/attachments"
	"pricingboard/internal/board"
	"pricingboard/internal/logging"
	"pricingboard/internal/notifications"
	"pricingboard/internal/telemetry"
)

// Store is the document store surface the engine uses.
type Store interface {
	GetTask(ctx context.Context, id string) (*board.Task, error)
	CreateTask(ctx context.Context, task *board.Task) (*board.Task, error)
	UpdateTask(ctx context.Context, task *board.Task) error
	MoveTask(ctx context.Context, id string, from, to board.Stage, index int) (*board.Task, error)
	Reorder(ctx context.Context, id string, stage board.Stage, index int) (*board.Task, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
}

// Notifier receives best-effort announcements. notifications.Emitter satisfies it.
type Notifier interface {
	Emit(event notifications.Event, payload notifications.Payload)
}

// Outcome classifies a completed request.
type Outcome string

const (
	OutcomeMoved     Outcome = "moved"
	OutcomeReordered Outcome = "reordered"
	OutcomeRemoved   Outcome = "removed"
	// OutcomeStale means the task no longer exists; nothing was written.
	OutcomeStale Outcome = "stale"
)

// TransitionResult reports a transition or reorder.
type TransitionResult struct {
	Outcome Outcome
	Task    *board.Task
	From    board.Stage
	To      board.Stage
}

// Engine applies lifecycle changes to tasks.
type Engine struct {
	store    Store
	files    *attachments.Manager
	table    *access.Table
	notifier Notifier
	metrics  *telemetry.Metrics
	guard    *Guard
	logger   *slog.Logger
}

// NewEngine wires an Engine. A nil table uses access.Default(); a nil
// notifier discards announcements.
func NewEngine(store Store, files *attachments.Manager, table *access.Table, notifier Notifier, metrics *telemetry.Metrics, logger *slog.Logger) *Engine {
	if table == nil {
		table = access.Default()
	}
	return &Engine{
		store:    store,
		files:    files,
		table:    table,
		notifier: notifier,
		metrics:  metrics,
		guard:    NewGuard(),
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Table returns the role tables the engine enforces.
func (e *Engine) Table() *access.Table {
	return e.table
}

// Files returns the attachment manager.
func (e *Engine) Files() *attachments.Manager {
	return e.files
}

// Check decides whether role may move a task from one stage to another. It
// never performs I/O.
func Check(table *access.Table, role access.Role, from, to board.Stage) error {
	if !to.Valid() {
		return fmt.Errorf("%w %q", ErrUnknownStage, to)
	}
	if from == to {
		return fmt.Errorf("%w (%s)", ErrNoOpTransition, to)
	}
	if !table.CanTransition(role, from, to) {
		return access.Deny(role, "move", from, to)
	}
	return nil
}

// TransitionOption adjusts a single transition.
type TransitionOption func(*transitionSettings)

type transitionSettings struct {
	quiet bool
}

// Quiet suppresses the per-task notification.
func Quiet() TransitionOption {
	return func(s *transitionSettings) { s.quiet = true }
}

// AttemptTransition moves task to stage to on behalf of actor, inserting it
// at index in the destination (negative appends). Permission is evaluated
// against task.Status as the caller observed it; the write only succeeds if
// the task is still there.
func (e *Engine) AttemptTransition(ctx context.Context, actor access.Identity, task *board.Task, to board.Stage, index int, opts ...TransitionOption) (TransitionResult, error) {
	if task == nil {
		return TransitionResult{}, fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}
	var settings transitionSettings
	for _, opt := range opts {
		opt(&settings)
	}
	from := task.Status
	ctx = logging.WithTaskID(ctx, task.ID)
	ctx = logging.WithActor(ctx, actor.UserID, string(actor.Role))
	logger := logging.WithContext(ctx, e.logger)

	if err := Check(e.table, actor.Role, from, to); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			e.metrics.Transition(ctx, telemetry.ResultDenied, string(to))
			logger.Info("transition denied",
				logging.String("from", string(from)),
				logging.String("to", string(to)),
			)
		}
		return TransitionResult{}, err
	}

	release, err := e.guard.Acquire(guardKey("move", actor.UserID, task.ID))
	if err != nil {
		return TransitionResult{}, err
	}
	defer release()

	moved, err := e.store.MoveTask(ctx, task.ID, from, to, index)
	switch {
	case errors.Is(err, board.ErrNotFound):
		e.metrics.Transition(ctx, telemetry.ResultStale, string(to))
		logger.Debug("transition target vanished")
		return TransitionResult{Outcome: OutcomeStale, From: from, To: to}, nil
	case errors.Is(err, board.ErrStageChanged):
		e.metrics.Transition(ctx, telemetry.ResultConflict, string(to))
		logger.Info("transition lost race", logging.String("from", string(from)), logging.Error(err))
		return TransitionResult{}, fmt.Errorf("%w: %w", ErrConflict, err)
	case err != nil:
		return TransitionResult{}, err
	}

	e.metrics.Transition(ctx, telemetry.ResultPermitted, string(to))
	logger.Info("task moved",
		logging.String("from", string(from)),
		logging.String("to", string(to)),
		logging.Int("position", moved.Position),
	)
	if !settings.quiet {
		e.emit(transitionEvent(from, to), moved, actor, from)
	}
	return TransitionResult{Outcome: OutcomeMoved, Task: moved, From: from, To: to}, nil
}

// Move reads the task fresh and attempts the transition. A task that no
// longer exists resolves as OutcomeStale.
func (e *Engine) Move(ctx context.Context, actor access.Identity, taskID string, to board.Stage, index int) (TransitionResult, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if errors.Is(err, board.ErrNotFound) {
		return TransitionResult{Outcome: OutcomeStale, To: to}, nil
	}
	if err != nil {
		return TransitionResult{}, err
	}
	return e.AttemptTransition(ctx, actor, task, to, index)
}

// Reorder moves a task to index within stage. Only roles that may drag tasks
// out of stage may reorder it; status never changes.
func (e *Engine) Reorder(ctx context.Context, actor access.Identity, taskID string, stage board.Stage, index int) (TransitionResult, error) {
	if !stage.Valid() {
		return TransitionResult{}, fmt.Errorf("%w %q", ErrUnknownStage, stage)
	}
	if !e.table.CanMoveFrom(actor.Role, stage) {
		e.metrics.Transition(ctx, telemetry.ResultDenied, string(stage))
		return TransitionResult{}, access.Deny(actor.Role, "reorder", stage, "")
	}
	release, err := e.guard.Acquire(guardKey("move", actor.UserID, taskID))
	if err != nil {
		return TransitionResult{}, err
	}
	defer release()

	task, err := e.store.Reorder(ctx, taskID, stage, index)
	switch {
	case errors.Is(err, board.ErrNotFound):
		return TransitionResult{Outcome: OutcomeStale, From: stage, To: stage}, nil
	case errors.Is(err, board.ErrStageChanged):
		return TransitionResult{}, fmt.Errorf("%w: %w", ErrConflict, err)
	case err != nil:
		return TransitionResult{}, err
	}
	return TransitionResult{Outcome: OutcomeReordered, Task: task, From: stage, To: stage}, nil
}

func transitionEvent(from, to board.Stage) notifications.Event {
	switch {
	case to == board.StageArchive:
		return notifications.EventTaskArchived
	case from == board.StageArchive:
		return notifications.EventTaskUnarchived
	default:
		return notifications.EventTaskMoved
	}
}

func (e *Engine) emit(event notifications.Event, task *board.Task, actor access.Identity, from board.Stage) {
	if e.notifier == nil || task == nil {
		return
	}
	payload := notifications.Payload{
		"title": task.Title,
		"to":    string(task.Status),
		"actor": actor.Name(),
	}
	if from != "" {
		payload["from"] = string(from)
	}
	if task.Link != "" {
		payload["link"] = task.Link
	}
	e.notifier.Emit(event, payload)
}
