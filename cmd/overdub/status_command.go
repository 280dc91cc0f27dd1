package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"overdub/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show tool availability, directory access, and queue health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("External tools", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				kind := statusOK
				message := status.Command
				if !status.Available {
					message = status.Detail
					if status.Optional {
						kind = statusWarn
					} else {
						kind = statusError
					}
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Directories", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(out, line)
			}
			store, err := ctx.openStore()
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Queue database", statusError, err.Error(), colorize))
				return nil
			}
			defer store.Close()

			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Queue database", statusError, err.Error(), colorize))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("Queue database", statusOK, store.Path(), colorize))
			fmt.Fprintln(out, renderStatusLine("Jobs", statusInfo,
				fmt.Sprintf("%d total (%d pending, %d running, %d completed, %d failed)",
					summary.Total, summary.Pending, summary.Running, summary.Completed, summary.Failed),
				colorize))
			return nil
		},
	}
}
