// Package workflow drives depth-parameterized analysis runs. The Runner
// executes the staged plan in order, bounding each stage with a timeout and
// applying severity-classified recovery between attempts; only a critical
// failure aborts the run. The Engine wraps a Runner with single-instance
// locking, preflight checks, run persistence, and notifications.
package workflow
