package board

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStageChanged indicates a conditional stage update found the task in a different stage.
	ErrStageChanged = errors.New("task is no longer in the expected stage")
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)
