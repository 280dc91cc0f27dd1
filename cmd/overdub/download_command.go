package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"overdub/internal/download"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <url> [output]",
		Short: "Fetch the best audio stream from a URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.newDownloader()
			if err != nil {
				return err
			}

			req := download.Request{URL: args[0], Dir: cfg.Paths.OutputDir}
			if len(args) == 2 {
				req.Output = args[1]
			}

			result, err := svc.Fetch(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Title != "" {
				fmt.Fprintf(out, "Title: %s\n", result.Title)
			}
			fmt.Fprintf(out, "Saved to %s\n", result.OutputPath)
			return nil
		},
	}
}
