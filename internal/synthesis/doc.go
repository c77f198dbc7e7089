// Package synthesis turns accumulated stage results into the final workflow
// report: each result is normalized into a contribution record, contributions
// are fused with a depth-selected strategy, and the fused whole is graded.
//
// Synthesis never fails: an empty or fully degraded result set produces a
// Poor-graded report with an explicit synthesis-failure marker instead of an
// error.
package synthesis
