// Package plan owns the depth-keyed workflow stage plans and the stage
// classification table used for failure severity.
//
// Plans are hard-coded and deterministic: each deeper depth is a strict
// superset of the shallower depth's stages. The classification table lives
// here so a stage-name typo surfaces as a configuration error when the plan is
// built, not as a silently defaulted severity at runtime.
package plan
