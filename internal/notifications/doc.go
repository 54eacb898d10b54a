// Package notifications announces board events via pluggable notifiers.
//
// Two transports are provided: a Discord-compatible webhook posting JSON
// embeds and an ntfy publisher posting plain text with header metadata. When
// no provider is configured a no-op implementation is returned. Enumerated
// event types cover task creation, stage moves, archival, and sweep summaries
// so callers emit consistent messages without duplicating HTTP glue.
//
// Delivery is best effort. The Emitter runs each send on its own goroutine
// with a timeout, logs failures, and never retries or blocks the caller.
package notifications
