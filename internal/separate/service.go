package separate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"overdub/internal/deps"
	"overdub/internal/logging"
	"overdub/internal/services"
)

const stageName = "separate"

// CommandRunner executes an external command and returns combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Config carries the separation settings.
type Config struct {
	DemucsBinary   string
	SpleeterBinary string
	Model          string
	Device         string
	MP3Bitrate     int
	SegmentSeconds float64
}

// Service splits audio into vocals and accompaniment stems. Demucs is
// the primary backend; spleeter takes over when demucs is missing or
// fails.
type Service struct {
	cfg       Config
	runner    CommandRunner
	available func(string) bool
	logger    *slog.Logger
}

// Result points at the two stems a separation produced.
type Result struct {
	VocalsPath        string
	AccompanimentPath string
	Backend           string
}

// NewService constructs a separator. Zero-value config fields fall back
// to demucs defaults (htdemucs, cpu, 320 kbps mp3).
func NewService(cfg Config, logger *slog.Logger) *Service {
	if cfg.DemucsBinary == "" {
		cfg.DemucsBinary = "demucs"
	}
	if cfg.SpleeterBinary == "" {
		cfg.SpleeterBinary = "spleeter"
	}
	if cfg.Model == "" {
		cfg.Model = "htdemucs"
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	if cfg.MP3Bitrate <= 0 {
		cfg.MP3Bitrate = 320
	}
	return &Service{
		cfg:       cfg,
		runner:    defaultRunner,
		available: deps.Available,
		logger:    logging.NewComponentLogger(logger, stageName),
	}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner CommandRunner) *Service {
	if runner != nil {
		s.runner = runner
	}
	return s
}

// WithAvailability overrides binary availability checks (for testing).
func (s *Service) WithAvailability(fn func(string) bool) *Service {
	if fn != nil {
		s.available = fn
	}
	return s
}

// Separate splits input into vocals and accompaniment under outputDir.
// Stems land in outputDir/<track>/ where <track> is the input filename
// without its extension.
func (s *Service) Separate(ctx context.Context, input, outputDir string) (Result, error) {
	var result Result

	if _, err := os.Stat(input); err != nil {
		return result, services.Wrap(services.ErrNotFound, stageName, "", fmt.Sprintf("input file not found: %s", input), err)
	}
	if outputDir == "" {
		return result, services.Wrap(services.ErrValidation, stageName, "", "output directory required", nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrTransient, stageName, "mkdir", outputDir, err)
	}

	var backendErrs []error

	if s.available(s.cfg.DemucsBinary) {
		res, err := s.runDemucs(ctx, input, outputDir)
		if err == nil {
			return res, nil
		}
		s.logger.Warn("demucs failed, trying spleeter", logging.Error(err))
		backendErrs = append(backendErrs, fmt.Errorf("demucs: %w", err))
	} else {
		backendErrs = append(backendErrs, fmt.Errorf("demucs: %w", services.ErrUnavailable))
	}

	if s.available(s.cfg.SpleeterBinary) {
		res, err := s.runSpleeter(ctx, input, outputDir)
		if err == nil {
			return res, nil
		}
		backendErrs = append(backendErrs, fmt.Errorf("spleeter: %w", err))
	} else {
		backendErrs = append(backendErrs, fmt.Errorf("spleeter: %w", services.ErrUnavailable))
	}

	return result, services.Wrap(services.ErrExternalTool, stageName, "all backends failed", "", errors.Join(backendErrs...))
}

func (s *Service) runDemucs(ctx context.Context, input, outputDir string) (Result, error) {
	var result Result

	segment := SegmentSize(s.cfg.Model, s.cfg.SegmentSeconds)
	s.logger.Info("running demucs",
		logging.String("model", s.cfg.Model),
		logging.String("device", s.cfg.Device),
		logging.Float64("segment_seconds", segment),
	)

	args := []string{
		"--two-stems", "vocals",
		"--mp3",
		"--mp3-bitrate", strconv.Itoa(s.cfg.MP3Bitrate),
		"-n", s.cfg.Model,
		"--segment", strconv.FormatFloat(segment, 'g', -1, 64),
		"--device", s.cfg.Device,
		"-o", outputDir,
		input,
	}
	if _, err := s.runner(ctx, s.cfg.DemucsBinary, args...); err != nil {
		return result, err
	}
	return s.reorganize(input, outputDir)
}

// reorganize flattens demucs output. Demucs writes
// <dir>/<model>/<track>/{vocals,no_vocals}.mp3; callers expect
// <dir>/<track>/{vocals,accompaniment}.mp3.
func (s *Service) reorganize(input, outputDir string) (Result, error) {
	var result Result

	track := trackName(input)
	modelDir := filepath.Join(outputDir, s.cfg.Model)
	srcDir := filepath.Join(modelDir, track)
	destDir := filepath.Join(outputDir, track)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return result, fmt.Errorf("create track dir: %w", err)
	}

	moves := []struct{ src, dest string }{
		{filepath.Join(srcDir, "vocals.mp3"), filepath.Join(destDir, "vocals.mp3")},
		{filepath.Join(srcDir, "no_vocals.mp3"), filepath.Join(destDir, "accompaniment.mp3")},
	}
	for _, m := range moves {
		if err := os.Rename(m.src, m.dest); err != nil {
			return result, fmt.Errorf("collect stem %s: %w", filepath.Base(m.src), err)
		}
	}
	if err := os.RemoveAll(modelDir); err != nil {
		return result, fmt.Errorf("remove model dir: %w", err)
	}

	result.VocalsPath = filepath.Join(destDir, "vocals.mp3")
	result.AccompanimentPath = filepath.Join(destDir, "accompaniment.mp3")
	result.Backend = "demucs"
	return result, nil
}

func (s *Service) runSpleeter(ctx context.Context, input, outputDir string) (Result, error) {
	var result Result

	s.logger.Info("running spleeter", logging.String("output", outputDir))
	args := []string{"separate", "-p", "spleeter:2stems", "-o", outputDir, input}
	if _, err := s.runner(ctx, s.cfg.SpleeterBinary, args...); err != nil {
		return result, err
	}

	trackDir := filepath.Join(outputDir, trackName(input))
	result.VocalsPath = filepath.Join(trackDir, "vocals.wav")
	result.AccompanimentPath = filepath.Join(trackDir, "accompaniment.wav")
	result.Backend = "spleeter"

	if _, err := os.Stat(result.VocalsPath); err != nil {
		return Result{}, fmt.Errorf("expected stem missing: %w", err)
	}
	return result, nil
}

func trackName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return out, nil
}
