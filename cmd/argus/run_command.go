package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"argus/internal/config"
	"argus/internal/plan"
	"argus/internal/synthesis"
	"argus/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var depthFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "run <target>",
		Short: "Execute an analysis workflow against a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(args[0])
			return ctx.withEngine(func(engine *workflow.Engine, cfg *config.Config) error {
				if err := engine.Acquire(); err != nil {
					return err
				}

				depth := depthFlag
				if strings.TrimSpace(depth) == "" {
					depth = cfg.Workflow.DefaultDepth
				}

				report, run, err := engine.RunWorkflow(cmd.Context(), target, plan.ParseDepth(depth))
				if report == nil {
					return err
				}

				if jsonFlag {
					if writeErr := writeJSON(cmd, report); writeErr != nil {
						return writeErr
					}
				} else {
					printReport(cmd, report)
					if run != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "\nRun #%d recorded (correlation %s)\n", run.ID, report.CorrelationID)
					}
				}

				if errors.Is(err, workflow.ErrWorkflowAborted) {
					return fmt.Errorf("workflow aborted: %s", workflow.AbortReason(err))
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&depthFlag, "depth", "d", "", "Workflow depth (standard, deep, comprehensive, experimental)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit the full report as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, report *synthesis.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, report.ExecutiveSummary)
	fmt.Fprintf(out, "\nGrade: %s (score %.3f, depth %s)\n", report.QualityGrade, report.CompositeScore, report.Depth)
	if report.Aborted {
		fmt.Fprintln(out, "Status: ABORTED (partial report)")
	}

	rows := make([][]string, 0, len(report.Contributions))
	for _, contribution := range report.Contributions {
		rows = append(rows, []string{
			contribution.StageName,
			contribution.Role,
			contribution.Outcome,
			strconv.FormatFloat(contribution.QualityScore, 'f', 2, 64),
			strconv.FormatFloat(contribution.ConfidenceLevel, 'f', 2, 64),
			strconv.FormatFloat(contribution.ProcessingTimeSeconds, 'f', 1, 64),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Role", "Outcome", "Quality", "Confidence", "Seconds"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
}
