// Package access holds the static role tables that gate the pricing pipeline.
//
// Two tables are kept separate: the transition-source table (which stages a
// role may move a task out of) and the folder-visibility table (which
// attachment folders a role may see). Both live in tables.yaml, embedded at
// build time and validated exhaustively when the package initializes, so
// every role × stage combination is data rather than scattered conditionals.
//
// Permission checks here are pure and synchronous; callers evaluate them
// before touching any local or remote state.
package access
