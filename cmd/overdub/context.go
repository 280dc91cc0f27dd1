package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"overdub/internal/config"
	"overdub/internal/download"
	"overdub/internal/logging"
	"overdub/internal/media/ffprobe"
	"overdub/internal/queue"
	"overdub/internal/separate"
	"overdub/internal/stretch"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) openStore() (*queue.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return queue.Open(cfg)
}

func (c *commandContext) newAdjuster() (*stretch.Adjuster, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	probe := func(ctx context.Context, path string) (float64, error) {
		return ffprobe.Duration(ctx, cfg.FFprobeBinary(), path)
	}

	backends := make([]stretch.Backend, 0, len(cfg.Stretch.BackendOrder))
	for _, name := range cfg.Stretch.BackendOrder {
		switch name {
		case "ffmpeg":
			backends = append(backends, stretch.NewFFmpegBackend(cfg.FFmpegBinary()))
		case "rubberband":
			backends = append(backends, stretch.NewRubberbandBackend(cfg.RubberbandBinary()))
		}
	}
	return stretch.NewAdjuster(probe, backends, cfg.Stretch.NoopTolerance, c.ensureLogger())
}

func (c *commandContext) newDownloader() (*download.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return download.NewService(cfg.YtDlpBinary(), cfg.Download.AudioFormat, cfg.Download.AudioQuality, c.ensureLogger()), nil
}

func (c *commandContext) newSeparator() (*separate.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return separate.NewService(separate.Config{
		DemucsBinary:   cfg.DemucsBinary(),
		SpleeterBinary: cfg.SpleeterBinary(),
		Model:          cfg.Separation.Model,
		Device:         cfg.Separation.Device,
		MP3Bitrate:     cfg.Separation.MP3Bitrate,
		SegmentSeconds: cfg.Separation.SegmentSeconds,
	}, c.ensureLogger()), nil
}
