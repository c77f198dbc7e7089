// Package recovery decides what happens after a stage fails.
//
// The classifier maps an error plus stage context onto a severity; the
// planner maps a severity onto one of five recovery strategies with the
// parameters needed to carry it out. Both are pure decision logic: the
// workflow executor owns the mechanics of re-invoking stages and the run loop
// owns when to stop.
package recovery
