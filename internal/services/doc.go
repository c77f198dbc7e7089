// Package services holds cross-cutting helpers shared by workflow stages and
// the engine: context annotation for run, stage, and correlation identifiers,
// and the sentinel error markers used to classify stage failures.
//
// Stage code should wrap outgoing errors with Wrap so the recovery layer can
// recognize the failure class without string matching at call sites.
package services
