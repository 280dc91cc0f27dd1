package stretch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"overdub/internal/fileutil"
	"overdub/internal/logging"
	"overdub/internal/media/ffprobe"
	"overdub/internal/services"
)

const stageName = "stretch"

// ProbeFunc measures the duration of an audio file in seconds.
type ProbeFunc func(ctx context.Context, path string) (float64, error)

// Request describes one tempo adjustment. Values are fixed once validated.
type Request struct {
	Input         string
	TargetSeconds float64
	Output        string
}

// Result reports what a tempo adjustment did.
type Result struct {
	CurrentDuration    float64
	TargetDuration     float64
	RequiredMultiplier float64
	AppliedMultiplier  float64
	Processed          bool
	Backend            string
	Plan               []float64
	FinalDuration      float64
	DurationError      float64
}

// Clamped reports whether the applied multiplier deviates from the
// requested one beyond floating-point noise, meaning the achieved timing
// cannot exactly match the request.
func (r Result) Clamped() bool {
	return math.Abs(r.AppliedMultiplier-r.RequiredMultiplier) > 1e-9
}

// Adjuster retimes audio files to a target duration using an ordered list
// of stretch backends. The first backend to succeed wins.
type Adjuster struct {
	probe         ProbeFunc
	backends      []Backend
	noopTolerance float64
	logger        *slog.Logger
}

// NewAdjuster constructs an Adjuster. The probe defaults to ffprobe on
// PATH when nil, and the no-op tolerance defaults to 0.05.
func NewAdjuster(probe ProbeFunc, backends []Backend, noopTolerance float64, logger *slog.Logger) (*Adjuster, error) {
	if len(backends) == 0 {
		return nil, errors.New("stretch: at least one backend required")
	}
	if probe == nil {
		probe = func(ctx context.Context, path string) (float64, error) {
			return ffprobe.Duration(ctx, "ffprobe", path)
		}
	}
	if noopTolerance <= 0 {
		noopTolerance = 0.05
	}
	return &Adjuster{
		probe:         probe,
		backends:      backends,
		noopTolerance: noopTolerance,
		logger:        logging.NewComponentLogger(logger, stageName),
	}, nil
}

// Adjust retimes req.Input so its duration matches req.TargetSeconds and
// writes the result to req.Output. When the clamped multiplier is within
// the no-op tolerance of 1.0 the input is copied byte-for-byte instead.
func (a *Adjuster) Adjust(ctx context.Context, req Request) (Result, error) {
	var result Result

	if _, err := os.Stat(req.Input); err != nil {
		return result, services.Wrap(services.ErrNotFound, stageName, "", fmt.Sprintf("input file not found: %s", req.Input), err)
	}
	if req.TargetSeconds <= 0 {
		return result, services.Wrap(services.ErrValidation, stageName, "", "target duration must be positive", nil)
	}

	current, err := a.probe(ctx, req.Input)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, stageName, "probe", req.Input, err)
	}

	result.CurrentDuration = current
	result.TargetDuration = req.TargetSeconds
	result.RequiredMultiplier = current / req.TargetSeconds

	a.logger.Info("computed stretch request",
		logging.Float64("current_seconds", current),
		logging.Float64("target_seconds", req.TargetSeconds),
		logging.Float64("required_multiplier", result.RequiredMultiplier),
	)

	primary := a.backends[0]
	clamped := primary.Clamp(result.RequiredMultiplier)
	if math.Abs(clamped-1) <= a.noopTolerance {
		if err := fileutil.CopyFileVerified(req.Input, req.Output); err != nil {
			return result, services.Wrap(services.ErrTransient, stageName, "copy", req.Output, err)
		}
		result.AppliedMultiplier = 1.0
		result.FinalDuration = current
		result.DurationError = math.Abs(current - req.TargetSeconds)
		a.logger.Info("tempo adjustment not needed, copied input",
			logging.Float64("multiplier", clamped),
		)
		return result, nil
	}

	var backendErrs []error
	for _, backend := range a.backends {
		applied := backend.Clamp(result.RequiredMultiplier)
		stages, err := backend.Stretch(ctx, req.Input, req.Output, applied)
		if err != nil {
			a.logger.Warn("stretch backend failed",
				logging.String(logging.FieldBackend, backend.Name()),
				logging.Error(err),
			)
			backendErrs = append(backendErrs, fmt.Errorf("%s: %w", backend.Name(), err))
			continue
		}

		final, err := a.probe(ctx, req.Output)
		if err != nil {
			return result, services.Wrap(services.ErrExternalTool, stageName, "verify", req.Output, err)
		}

		result.AppliedMultiplier = applied
		result.Processed = true
		result.Backend = backend.Name()
		result.Plan = stages
		result.FinalDuration = final
		result.DurationError = math.Abs(final - req.TargetSeconds)

		if result.Clamped() {
			a.logger.Warn("multiplier clamped, timing will not match exactly",
				logging.Float64("required", result.RequiredMultiplier),
				logging.Float64("applied", applied),
			)
		}
		a.logger.Info("stretch complete",
			logging.String(logging.FieldBackend, backend.Name()),
			logging.Int("stages", len(stages)),
			logging.Float64("final_seconds", final),
			logging.Float64("duration_error", result.DurationError),
		)
		return result, nil
	}

	return result, services.Wrap(services.ErrExternalTool, stageName, "all backends failed", "", errors.Join(backendErrs...))
}
