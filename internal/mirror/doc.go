// Package mirror executes a reconciliation plan against the sync root:
// materializing new tracks, deleting unfavorited ones, pruning empty
// directories, and verifying convergence. Planning is pure and happens
// before any side effect; per-key failures are isolated and surface in the
// run summary rather than aborting the run.
package mirror
