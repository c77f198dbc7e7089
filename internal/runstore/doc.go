// Package runstore persists workflow runs in SQLite.
//
// The Store manages database connections, schema initialization, and the run
// lifecycle from creation through terminal status. Each run records the
// requested depth, the final quality grade and composite score, and the full
// fused report as JSON so the CLI can replay results without re-executing the
// workflow.
//
// The database is treated as a run ledger rather than live coordination state;
// a run row is written once at start and finalized once at completion. Schema
// changes bump schemaVersion in store.go; users clear the database to adopt the
// new schema.
package runstore
