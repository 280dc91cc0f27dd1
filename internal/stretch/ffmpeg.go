package stretch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ffmpeg's atempo filter accepts 0.5-100.0 per the documented range, but
// values above 2.0 degrade quality, so the chain is decomposed into
// stages of at most 2.0.
var (
	ffmpegClampBounds = Bounds{Min: 0.5, Max: 100.0}
	ffmpegStageBounds = Bounds{Min: 0.5, Max: 2.0}
)

// FFmpegBackend stretches audio with ffmpeg's atempo filter. A single
// invocation applies the whole plan as a chained filter expression.
type FFmpegBackend struct {
	binary string
	runner CommandRunner
}

// NewFFmpegBackend constructs an ffmpeg-based stretch backend.
func NewFFmpegBackend(binary string) *FFmpegBackend {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegBackend{binary: binary, runner: defaultRunner}
}

// WithRunner sets a custom command runner (for testing).
func (b *FFmpegBackend) WithRunner(runner CommandRunner) *FFmpegBackend {
	b.runner = runner
	return b
}

func (b *FFmpegBackend) Name() string { return "ffmpeg" }

func (b *FFmpegBackend) Binary() string { return b.binary }

func (b *FFmpegBackend) Clamp(multiplier float64) float64 {
	return ffmpegClampBounds.Clamp(multiplier)
}

func (b *FFmpegBackend) Stretch(ctx context.Context, input, output string, multiplier float64) ([]float64, error) {
	stages, err := Plan(multiplier, ffmpegStageBounds)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vn",
		"-af", atempoChain(stages),
		output,
	}
	if err := b.runner(ctx, b.binary, args...); err != nil {
		return nil, fmt.Errorf("ffmpeg atempo: %w", err)
	}
	return stages, nil
}

func atempoChain(stages []float64) string {
	filters := make([]string, 0, len(stages))
	for _, stage := range stages {
		filters = append(filters, fmt.Sprintf("atempo=%.6f", stage))
	}
	return strings.Join(filters, ",")
}

func defaultRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
