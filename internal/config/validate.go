package config

import (
	"fmt"
	"strings"
)

var knownBackends = map[string]struct{}{
	"ffmpeg":     {},
	"rubberband": {},
}

var knownDevices = map[string]struct{}{
	"cpu":  {},
	"cuda": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStretch(); err != nil {
		return err
	}
	if err := c.validateSeparation(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStretch() error {
	for _, name := range c.Stretch.BackendOrder {
		if _, ok := knownBackends[name]; !ok {
			return fmt.Errorf("stretch.backend_order: unknown backend %q (expected one of: ffmpeg, rubberband)", name)
		}
	}
	if c.Stretch.NoopTolerance >= 1 {
		return fmt.Errorf("stretch.noop_tolerance: %v is too large (must be below 1)", c.Stretch.NoopTolerance)
	}
	return nil
}

func (c *Config) validateSeparation() error {
	if _, ok := knownDevices[c.Separation.Device]; !ok {
		return fmt.Errorf("separation.device: unknown device %q (expected cpu or cuda)", c.Separation.Device)
	}
	if c.Separation.MP3Bitrate > 320 {
		return fmt.Errorf("separation.mp3_bitrate: %d exceeds the MP3 maximum of 320", c.Separation.MP3Bitrate)
	}
	return nil
}

func (c *Config) validateDownload() error {
	switch c.Download.AudioFormat {
	case "mp3", "m4a", "opus", "flac", "wav", "best":
		return nil
	default:
		return fmt.Errorf("download.audio_format: unsupported format %q", c.Download.AudioFormat)
	}
}

// Describe returns a short human-readable summary of the resolved configuration.
func (c *Config) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "work dir: %s\n", c.Paths.WorkDir)
	fmt.Fprintf(&b, "output dir: %s\n", c.Paths.OutputDir)
	fmt.Fprintf(&b, "log dir: %s\n", c.Paths.LogDir)
	fmt.Fprintf(&b, "stretch backends: %s\n", strings.Join(c.Stretch.BackendOrder, ", "))
	fmt.Fprintf(&b, "separation model: %s (%s)\n", c.Separation.Model, c.Separation.Device)
	fmt.Fprintf(&b, "download format: %s\n", c.Download.AudioFormat)
	return b.String()
}
