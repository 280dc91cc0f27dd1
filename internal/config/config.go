package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Tools contains overrides for the external binaries Overdub shells out to.
// Empty values resolve to the conventional binary name on PATH.
type Tools struct {
	FFmpeg     string `toml:"ffmpeg"`
	FFprobe    string `toml:"ffprobe"`
	Rubberband string `toml:"rubberband"`
	YtDlp      string `toml:"ytdlp"`
	Demucs     string `toml:"demucs"`
	Spleeter   string `toml:"spleeter"`
}

// Stretch contains configuration for the tempo adjuster.
type Stretch struct {
	// BackendOrder lists stretch backends by preference; the first backend
	// that succeeds wins. Known values: "ffmpeg", "rubberband".
	BackendOrder []string `toml:"backend_order"`
	// NoopTolerance is the multiplier distance from 1.0 below which the
	// input is copied instead of processed.
	NoopTolerance float64 `toml:"noop_tolerance"`
}

// Separation contains configuration for vocal/accompaniment separation.
type Separation struct {
	Model      string `toml:"model"`
	Device     string `toml:"device"`
	MP3Bitrate int    `toml:"mp3_bitrate"`
	// SegmentSeconds overrides the memory-based demucs segment selection
	// when greater than zero.
	SegmentSeconds float64 `toml:"segment_seconds"`
}

// Download contains configuration for audio downloads.
type Download struct {
	AudioFormat  string `toml:"audio_format"`
	AudioQuality string `toml:"audio_quality"`
}

// Workflow contains configuration for the batch worker.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Overdub.
//
// Configuration sections by subsystem:
//   - Paths: working, output, and log directories
//   - Tools: external binary overrides (ffmpeg, ffprobe, rubberband, yt-dlp, demucs, spleeter)
//   - Stretch: tempo adjuster backend order and no-op tolerance
//   - Separation: demucs model, device, bitrate, and segment override
//   - Download: yt-dlp audio format and quality
//   - Workflow: batch worker polling interval
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tools      Tools      `toml:"tools"`
	Stretch    Stretch    `toml:"stretch"`
	Separation Separation `toml:"separation"`
	Download   Download   `toml:"download"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/overdub/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/overdub/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("overdub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
// OutputDir is created on a best-effort basis so commands can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return binaryOrDefault(c.Tools.FFmpeg, "ffmpeg")
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return binaryOrDefault(c.Tools.FFprobe, "ffprobe")
}

// RubberbandBinary returns the rubberband executable name.
func (c *Config) RubberbandBinary() string {
	return binaryOrDefault(c.Tools.Rubberband, "rubberband")
}

// YtDlpBinary returns the yt-dlp executable name.
func (c *Config) YtDlpBinary() string {
	return binaryOrDefault(c.Tools.YtDlp, "yt-dlp")
}

// DemucsBinary returns the demucs executable name.
func (c *Config) DemucsBinary() string {
	return binaryOrDefault(c.Tools.Demucs, "demucs")
}

// SpleeterBinary returns the spleeter executable name.
func (c *Config) SpleeterBinary() string {
	return binaryOrDefault(c.Tools.Spleeter, "spleeter")
}

func binaryOrDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
