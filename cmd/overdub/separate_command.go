package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeparateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "separate <input> [output_dir]",
		Short: "Split an audio file into vocals and accompaniment",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.newSeparator()
			if err != nil {
				return err
			}

			outputDir := cfg.Paths.OutputDir
			if len(args) == 2 {
				outputDir = args[1]
			}

			result, err := svc.Separate(cmd.Context(), args[0], outputDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Separated with %s\n", result.Backend)
			fmt.Fprintf(out, "Vocals:        %s\n", result.VocalsPath)
			fmt.Fprintf(out, "Accompaniment: %s\n", result.AccompanimentPath)
			return nil
		},
	}
}
