// Package workflow runs the board's periodic background jobs.
//
// The Manager owns one loop per registered Job. Each loop runs its job once
// at start, then on every interval until the manager stops. A failing run is
// logged and recorded in the job's status; the loop keeps going. Jobs with a
// non-positive interval are disabled and never scheduled, but can still be
// triggered with RunNow.
//
// The daemon registers the archive retention sweep and the orphan blob sweep.
package workflow
