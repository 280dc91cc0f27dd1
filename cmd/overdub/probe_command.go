package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"overdub/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>",
		Short: "Print duration and stream details for an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), args[0])
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Container", result.Format.FormatName},
				{"Duration", formatSeconds(result.DurationSeconds())},
				{"Size", formatBytes(result.SizeBytes())},
				{"Bitrate", formatBitrate(result.BitRate())},
				{"Audio streams", strconv.Itoa(result.AudioStreamCount())},
			}
			if rate := result.SampleRateHz(); rate > 0 {
				rows = append(rows, []string{"Sample rate", fmt.Sprintf("%d Hz", rate)})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Property", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func formatSeconds(value float64) string {
	if math.IsNaN(value) || value <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%.3f s", value)
}

func formatBytes(value int64) string {
	if value <= 0 {
		return "unknown"
	}
	const unit = 1024
	if value < unit {
		return fmt.Sprintf("%d B", value)
	}
	div, exp := int64(unit), 0
	for n := value / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(value)/float64(div), "KMGTPE"[exp])
}

func formatBitrate(value int64) string {
	if value <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d kb/s", value/1000)
}
