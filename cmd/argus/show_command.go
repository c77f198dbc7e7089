package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"argus/internal/runstore"
	"argus/internal/synthesis"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "show <run-id|correlation-id>",
		Short: "Show the stored report for one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runstore.Store) error {
				run, err := lookupRun(cmd, store, args[0])
				if err != nil {
					return err
				}
				if jsonFlag {
					if run.ReportJSON == "" {
						return writeJSON(cmd, run)
					}
					fmt.Fprintln(cmd.OutOrStdout(), run.ReportJSON)
					return nil
				}
				printRun(cmd, run)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the stored report as JSON")
	return cmd
}

func lookupRun(cmd *cobra.Command, store *runstore.Store, key string) (*runstore.Run, error) {
	key = strings.TrimSpace(key)
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return store.GetRun(cmd.Context(), id)
	}
	return store.GetRunByCorrelationID(cmd.Context(), key)
}

func printRun(cmd *cobra.Command, run *runstore.Run) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(cmd.OutOrStdout())

	for _, line := range renderSectionHeader(fmt.Sprintf("Run #%d", run.ID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Target", statusInfo, run.Target, colorize))
	fmt.Fprintln(out, renderStatusLine("Depth", statusInfo, run.Depth, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", statusKindForRun(run.Status), string(run.Status), colorize))
	if run.QualityGrade != "" {
		fmt.Fprintln(out, renderStatusLine("Grade", statusInfo, fmt.Sprintf("%s (%.3f)", run.QualityGrade, run.CompositeScore), colorize))
	}
	if run.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
	}
	report := decodeStoredReport(run.ReportJSON)
	if report != nil && len(report.Contributions) > 0 {
		fmt.Fprintln(out)
		printReport(cmd, report)
		return
	}
	if run.ExecutiveSummary != "" {
		fmt.Fprintf(out, "\n%s\n", run.ExecutiveSummary)
	}
}

func statusKindForRun(status runstore.Status) statusKind {
	switch status {
	case runstore.StatusCompleted:
		return statusOK
	case runstore.StatusDegraded:
		return statusWarn
	case runstore.StatusAborted, runstore.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}

func decodeStoredReport(reportJSON string) *synthesis.Report {
	if strings.TrimSpace(reportJSON) == "" {
		return nil
	}
	var report synthesis.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil
	}
	return &report
}
