// Package preflight provides readiness checks for the filesystem paths and
// external services a workflow run depends on.
//
// These checks run in two contexts:
//   - The engine calls RunAll before starting a run. If any check fails,
//     the run is refused rather than failing partway through.
//   - The CLI "argus status" command displays the same checks as service
//     health.
//
// Checks gated by configuration are skipped when the feature is disabled.
package preflight
