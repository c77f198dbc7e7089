// Package capability holds the registry of named capability roles that
// execute workflow stages, plus the built-in heuristic roles and the optional
// LLM-backed analyst.
//
// Plans and recovery reference roles only by name; the registry resolves the
// name to an implementation at execution time, so fallback roles can be
// swapped in without the planner knowing anything about implementations.
package capability
