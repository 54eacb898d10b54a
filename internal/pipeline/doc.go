// Package pipeline owns task lifecycle changes: stage transitions, in-stage
// reorders, creation, edits, and removal.
//
// Permission evaluation is synchronous and local (Check only consults the
// static role tables) and always runs before any write. A transition is a
// single conditional update keyed on the stage the caller observed, so a
// task that moved underneath the caller fails closed with ErrConflict and a
// task that vanished resolves as a stale no-op. A Guard rejects a second
// submission of the same request by the same actor while the first is still
// in flight.
package pipeline
