// Package daemon coordinates the long-running pricing board process.
//
// It wires configuration, the board store, blob storage, the pipeline engine,
// the archive service, and the background workflow manager into a single
// lifecycle with flock-based locking to prevent multiple instances. The daemon
// also serves the HTTP API used by the CLI and browser clients.
//
// Keep orchestration logic here: transition rules, attachment handling, and
// archival live in their own packages while the daemon focuses on startup,
// shutdown, request decoding, and error mapping.
package daemon
