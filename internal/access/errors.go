package access

import (
	"errors"
	"fmt"

	"pricingboard/internal/board"
)

// ErrPermissionDenied indicates the acting role may not perform the request.
var ErrPermissionDenied = errors.New("permission denied")

// PermissionError describes a denied request. It matches ErrPermissionDenied with errors.Is.
type PermissionError struct {
	Role   Role
	Action string
	From   board.Stage
	To     board.Stage
}

func (e *PermissionError) Error() string {
	role := string(e.Role)
	if role == "" {
		role = "unassigned"
	}
	switch {
	case e.From != "" && e.To != "":
		return fmt.Sprintf("permission denied: %s may not %s from %s to %s", role, e.Action, e.From, e.To)
	case e.From != "":
		return fmt.Sprintf("permission denied: %s may not %s in %s", role, e.Action, e.From)
	default:
		return fmt.Sprintf("permission denied: %s may not %s", role, e.Action)
	}
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

// Deny builds a PermissionError.
func Deny(role Role, action string, from, to board.Stage) error {
	return &PermissionError{Role: role, Action: action, From: from, To: to}
}
