package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"overdub/internal/stretch"
)

func newStretchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stretch <input> <target_seconds> <output>",
		Short: "Retime an audio file to a target duration",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parse target duration %q: %w", args[1], err)
			}

			adjuster, err := ctx.newAdjuster()
			if err != nil {
				return err
			}

			result, err := adjuster.Adjust(cmd.Context(), stretch.Request{
				Input:         args[0],
				TargetSeconds: target,
				Output:        args[2],
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Processed {
				fmt.Fprintf(out, "Input is already within tolerance of %.2fs; copied unchanged to %s\n",
					result.TargetDuration, args[2])
				return nil
			}

			fmt.Fprintf(out, "Stretched %s: %.3fs -> %.3fs (multiplier %.4f, backend %s, %d stage(s))\n",
				args[0], result.CurrentDuration, result.FinalDuration,
				result.AppliedMultiplier, result.Backend, len(result.Plan))
			if result.Clamped() {
				fmt.Fprintf(out, "Warning: multiplier clamped from %.4f to %.4f; duration error %.3fs\n",
					result.RequiredMultiplier, result.AppliedMultiplier, result.DurationError)
			}
			return nil
		},
	}
}
