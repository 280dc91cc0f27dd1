package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeStretch()
	c.normalizeSeparation()
	c.normalizeDownload()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Tools.Rubberband = strings.TrimSpace(c.Tools.Rubberband)
	c.Tools.YtDlp = strings.TrimSpace(c.Tools.YtDlp)
	c.Tools.Demucs = strings.TrimSpace(c.Tools.Demucs)
	c.Tools.Spleeter = strings.TrimSpace(c.Tools.Spleeter)
}

func (c *Config) normalizeStretch() {
	backends := make([]string, 0, len(c.Stretch.BackendOrder))
	seen := make(map[string]struct{}, len(c.Stretch.BackendOrder))
	for _, name := range c.Stretch.BackendOrder {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		backends = append(backends, normalized)
	}
	if len(backends) == 0 {
		backends = defaultBackendOrder()
	}
	c.Stretch.BackendOrder = backends

	if c.Stretch.NoopTolerance <= 0 {
		c.Stretch.NoopTolerance = defaultNoopTolerance
	}
}

func (c *Config) normalizeSeparation() {
	c.Separation.Model = strings.TrimSpace(c.Separation.Model)
	if c.Separation.Model == "" {
		c.Separation.Model = defaultSeparationModel
	}
	c.Separation.Device = strings.ToLower(strings.TrimSpace(c.Separation.Device))
	if c.Separation.Device == "" {
		c.Separation.Device = defaultSeparationDevice
	}
	if c.Separation.MP3Bitrate <= 0 {
		c.Separation.MP3Bitrate = defaultMP3Bitrate
	}
	if c.Separation.SegmentSeconds < 0 {
		c.Separation.SegmentSeconds = 0
	}
}

func (c *Config) normalizeDownload() {
	c.Download.AudioFormat = strings.ToLower(strings.TrimSpace(c.Download.AudioFormat))
	if c.Download.AudioFormat == "" {
		c.Download.AudioFormat = defaultAudioFormat
	}
	c.Download.AudioQuality = strings.TrimSpace(c.Download.AudioQuality)
	if c.Download.AudioQuality == "" {
		c.Download.AudioQuality = defaultAudioQuality
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
