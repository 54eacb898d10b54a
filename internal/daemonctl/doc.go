// Package daemonctl is the HTTP client for the pricing board daemon API. The
// CLI drives every board operation through it so that permission checks,
// guards, and notifications happen in one process.
package daemonctl
