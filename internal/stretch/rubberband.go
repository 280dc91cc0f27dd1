package stretch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// rubberband takes a stretch ratio (output length over input length)
// rather than a speed multiplier. Ratios outside this range produce
// audible artifacts, so each invocation stays within it.
var rubberbandRatioBounds = Bounds{Min: 0.3, Max: 3.0}

// RubberbandBackend stretches audio with the rubberband CLI. Plans with
// more than one stage run one invocation per stage through intermediate
// files next to the output.
type RubberbandBackend struct {
	binary string
	runner CommandRunner
}

// NewRubberbandBackend constructs a rubberband-based stretch backend.
func NewRubberbandBackend(binary string) *RubberbandBackend {
	if strings.TrimSpace(binary) == "" {
		binary = "rubberband"
	}
	return &RubberbandBackend{binary: binary, runner: defaultRunner}
}

// WithRunner sets a custom command runner (for testing).
func (b *RubberbandBackend) WithRunner(runner CommandRunner) *RubberbandBackend {
	b.runner = runner
	return b
}

func (b *RubberbandBackend) Name() string { return "rubberband" }

func (b *RubberbandBackend) Binary() string { return b.binary }

func (b *RubberbandBackend) Clamp(multiplier float64) float64 {
	if multiplier <= 0 {
		return multiplier
	}
	return 1 / rubberbandRatioBounds.Clamp(1/multiplier)
}

func (b *RubberbandBackend) Stretch(ctx context.Context, input, output string, multiplier float64) ([]float64, error) {
	if multiplier <= 0 {
		return nil, fmt.Errorf("rubberband: invalid multiplier %v", multiplier)
	}
	ratioStages, err := Plan(1/multiplier, rubberbandRatioBounds)
	if err != nil {
		return nil, err
	}

	stages := make([]float64, len(ratioStages))
	for i, ratio := range ratioStages {
		stages[i] = 1 / ratio
	}

	current := input
	for i, ratio := range ratioStages {
		dest := output
		if i < len(ratioStages)-1 {
			dest = stageFile(output, i)
			defer os.Remove(dest)
		}
		args := []string{
			"--fine",
			"--formant",
			"--time", fmt.Sprintf("%.6f", ratio),
			current,
			dest,
		}
		if err := b.runner(ctx, b.binary, args...); err != nil {
			return nil, fmt.Errorf("rubberband stage %d/%d: %w", i+1, len(ratioStages), err)
		}
		current = dest
	}
	return stages, nil
}

func stageFile(output string, index int) string {
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	return fmt.Sprintf("%s.stage%d%s", base, index, ext)
}
