package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"argus/internal/runstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent workflow runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runstore.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limitFlag)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						strconv.FormatInt(run.ID, 10),
						run.Depth,
						string(run.Status),
						run.QualityGrade,
						strconv.FormatFloat(run.CompositeScore, 'f', 2, 64),
						formatRunTime(run.UpdatedAt),
						run.Target,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Depth", "Status", "Grade", "Score", "Updated", "Target"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit runs as JSON")
	return cmd
}

func formatRunTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
