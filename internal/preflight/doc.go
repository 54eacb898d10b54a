// Package preflight provides readiness checks for the filesystem paths and
// services the pricing board depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and refuses to start when a required
//     check fails.
//   - The CLI "board status" command prints every result, including optional
//     checks such as notification reachability.
//
// Optional checks pass with a "Disabled" detail when their feature is off.
package preflight
