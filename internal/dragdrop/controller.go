package dragdrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"pricingboard/internal/access"
	"pricingboard/internal/board"
	"pricingboard/internal/logging"
	"pricingboard/internal/pipeline"
)

// ErrUnknownTask indicates a drag started on a task absent from the view.
var ErrUnknownTask = errors.New("task not on board")

// State is the controller's drag state.
type State string

const (
	StateIdle     State = "idle"
	StateDragging State = "dragging"
)

// Outcome is the result of a drop.
type Outcome string

const (
	// OutcomeIgnored means nothing happened: no active drag, a drop outside any
	// column, or a drop back onto the original slot.
	OutcomeIgnored      Outcome = "ignored"
	OutcomeReordered    Outcome = "reordered"
	OutcomeTransitioned Outcome = "transitioned"
	OutcomeDenied       Outcome = "denied"
	// OutcomeStale means the task no longer exists; it was dropped from the view.
	OutcomeStale Outcome = "stale"
)

// Target is a drop location. A nil Target is a drop outside every column.
type Target struct {
	Stage board.Stage
	Index int
}

// Mover performs confirmed changes. pipeline.Engine satisfies it.
type Mover interface {
	Table() *access.Table
	AttemptTransition(ctx context.Context, actor access.Identity, task *board.Task, to board.Stage, index int, opts ...pipeline.TransitionOption) (pipeline.TransitionResult, error)
	Reorder(ctx context.Context, actor access.Identity, taskID string, stage board.Stage, index int) (pipeline.TransitionResult, error)
}

// Controller holds one actor's drag state. Only one drag is active at a time.
type Controller struct {
	mover  Mover
	actor  access.Identity
	view   *View
	logger *slog.Logger

	mu     sync.Mutex
	active string
}

// NewController returns an idle controller for actor over view.
func NewController(mover Mover, actor access.Identity, view *View, logger *slog.Logger) *Controller {
	if view == nil {
		view = NewView(nil)
	}
	return &Controller{
		mover:  mover,
		actor:  actor,
		view:   view,
		logger: logging.NewComponentLogger(logger, "dragdrop"),
	}
}

// View returns the controller's board view.
func (c *Controller) View() *View {
	return c.view
}

// State reports whether a drag is active.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == "" {
		return StateIdle
	}
	return StateDragging
}

// Active returns the dragged task id, or "".
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Start begins dragging taskID, replacing any prior drag. Nothing is mutated.
func (c *Controller) Start(taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, _, ok := c.view.Find(taskID); !ok {
		return fmt.Errorf("%s: %w", taskID, ErrUnknownTask)
	}
	c.active = taskID
	return nil
}

// Cancel abandons the active drag.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.active = ""
	c.mu.Unlock()
}

// Drop ends the active drag at target. Permission is checked before any
// remote call; the view changes only after the write is confirmed.
func (c *Controller) Drop(ctx context.Context, target *Target) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.active
	c.active = ""
	if id == "" || target == nil || !target.Stage.Valid() {
		return OutcomeIgnored, nil
	}
	task, index, ok := c.view.Find(id)
	if !ok {
		return OutcomeStale, nil
	}
	table := c.mover.Table()
	logger := logging.WithContext(logging.WithTaskID(ctx, id), c.logger)

	if task.Status == target.Stage {
		if target.Index == index || (target.Index < 0 && index == len(c.view.columns[task.Status])-1) {
			return OutcomeIgnored, nil
		}
		if !table.CanMoveFrom(c.actor.Role, task.Status) {
			return OutcomeDenied, access.Deny(c.actor.Role, "reorder", task.Status, "")
		}
		res, err := c.mover.Reorder(ctx, c.actor, id, task.Status, target.Index)
		if err != nil {
			return c.failed(logger, err)
		}
		if res.Outcome == pipeline.OutcomeStale {
			c.view.remove(id)
			return OutcomeStale, nil
		}
		c.view.place(res.Task, target.Index)
		return OutcomeReordered, nil
	}

	if err := pipeline.Check(table, c.actor.Role, task.Status, target.Stage); err != nil {
		if errors.Is(err, access.ErrPermissionDenied) {
			logger.Debug("drop denied locally", logging.String("to", string(target.Stage)))
			return OutcomeDenied, err
		}
		return OutcomeIgnored, err
	}
	res, err := c.mover.AttemptTransition(ctx, c.actor, task, target.Stage, target.Index)
	if err != nil {
		return c.failed(logger, err)
	}
	if res.Outcome == pipeline.OutcomeStale {
		c.view.remove(id)
		return OutcomeStale, nil
	}
	c.view.place(res.Task, target.Index)
	return OutcomeTransitioned, nil
}

func (c *Controller) failed(logger *slog.Logger, err error) (Outcome, error) {
	if errors.Is(err, access.ErrPermissionDenied) {
		return OutcomeDenied, err
	}
	logger.Info("drop rejected", logging.Error(err))
	return OutcomeIgnored, err
}
