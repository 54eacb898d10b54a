// Package api defines wire-format types and converters for the daemon's HTTP
// API. It translates board models into transport-friendly DTOs that the CLI and
// browser clients can render without coupling to internal types.
//
// # Key Types
//
// Task: transport representation of a task with role-visible attachments and
// their resolved download URLs.
//
// Column/BoardResponse: tasks grouped by stage in pipeline order.
//
// DaemonStatus: daemon running state, background job status, and stage counts.
//
// # Converters
//
// FromTask: board.Task -> Task, filtering attachments through an AttachmentView
// so a caller only ever sees files from folders their role may view.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Stages and
// roles are exposed as lowercase strings. Timestamps use RFC3339 with
// milliseconds; due dates use plain calendar dates.
package api
