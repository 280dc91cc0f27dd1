package config

const (
	defaultWorkDir           = "~/.local/share/overdub/work"
	defaultOutputDir         = "~/overdub"
	defaultLogDir            = "~/.local/share/overdub/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultNoopTolerance     = 0.05
	defaultSeparationModel   = "htdemucs"
	defaultSeparationDevice  = "cpu"
	defaultMP3Bitrate        = 320
	defaultAudioFormat       = "mp3"
	defaultAudioQuality      = "0"
	defaultQueuePollInterval = 5
)

func defaultBackendOrder() []string {
	return []string{"ffmpeg", "rubberband"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Stretch: Stretch{
			BackendOrder:  defaultBackendOrder(),
			NoopTolerance: defaultNoopTolerance,
		},
		Separation: Separation{
			Model:      defaultSeparationModel,
			Device:     defaultSeparationDevice,
			MP3Bitrate: defaultMP3Bitrate,
		},
		Download: Download{
			AudioFormat:  defaultAudioFormat,
			AudioQuality: defaultAudioQuality,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
