package preflight

import (
	"context"

	"argus/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks gated by configuration are only run when the feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	if cfg.Paths.ReportDir != "" {
		results = append(results, CheckDirectoryAccess("Report directory", cfg.Paths.ReportDir))
	}
	results = append(results, CheckDiskSpace("Workspace free space", cfg.Paths.WorkspaceDir))

	if cfg.LLM.APIKey != "" {
		results = append(results, CheckLLM(ctx, "Analysis LLM", cfg.LLM))
	}

	return results
}

// AllPassed reports whether every check in the set passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
