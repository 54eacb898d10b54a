package pipeline

import (
	"errors"

	"pricingboard/internal/access"
)

var (
	// ErrPermissionDenied is returned, wrapped in a PermissionError, when the
	// acting role may not perform the request.
	ErrPermissionDenied = access.ErrPermissionDenied
	// ErrNoOpTransition indicates a transition onto the task's current stage.
	ErrNoOpTransition = errors.New("task is already in that stage")
	// ErrUnknownStage indicates a stage name outside the pipeline.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrBusy indicates the same request from the same actor is still in flight.
	ErrBusy = errors.New("request already in progress")
	// ErrConflict indicates the task left the observed stage before the write.
	ErrConflict = errors.New("task was moved by someone else")
	// ErrInvalidTask indicates rejected task input.
	ErrInvalidTask = errors.New("invalid task")
	// ErrConfirmationRequired indicates a destructive request without confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// PermissionError carries the role and stages of a denied request.
type PermissionError = access.PermissionError
