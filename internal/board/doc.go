// Package board owns the task entity model and its SQLite-backed store.
//
// Tasks live in a single tasks table keyed by id with a status column naming
// the pipeline stage. Stage changes are single-row conditional updates, so a
// task is never observable in two stages at once; Reconcile still dedupes
// listings defensively. Users and session tokens share the same database so
// the identity provider can resolve roles without another service.
//
// Callers should prefer the typed helpers here over raw SQL to keep position
// bookkeeping and timestamp encoding consistent.
package board
