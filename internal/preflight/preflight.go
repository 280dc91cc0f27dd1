package preflight

import (
	"context"

	"overdub/internal/config"
	"overdub/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config. Binary
// availability is reported separately via CheckSystemDeps.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// CheckSystemDeps evaluates the external binaries the pipeline shells
// out to. Both the worker and the CLI status command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for tempo adjustment",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for duration measurement",
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.YtDlpBinary(),
			Description: "Required for audio downloads",
		},
		{
			Name:        "Demucs",
			Command:     cfg.DemucsBinary(),
			Description: "Required for vocal separation",
		},
		{
			Name:        "Rubberband",
			Command:     cfg.RubberbandBinary(),
			Description: "Optional fallback stretch backend",
			Optional:    true,
		},
		{
			Name:        "Spleeter",
			Command:     cfg.SpleeterBinary(),
			Description: "Optional fallback separation backend",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
