package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"argus/internal/preflight"
	"argus/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check workspace and service readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Default depth", statusInfo, cfg.Workflow.DefaultDepth, colorize))
			fmt.Fprintln(out, renderStatusLine("LLM configured", statusInfo, yesNo(cfg.LLM.APIKey != ""), colorize))
			fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo, yesNo(cfg.Notifications.NtfyTopic != ""), colorize))

			if !preflight.AllPassed(results) {
				return fmt.Errorf("%w: one or more preflight checks failed", services.ErrConfiguration)
			}
			return nil
		},
	}
}
