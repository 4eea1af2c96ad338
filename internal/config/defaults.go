package config

const (
	defaultDownloadDir    = "~/.local/share/resound/downloads"
	defaultRenderDir      = "~/.local/share/resound/rendered"
	defaultStateDir       = "~/.local/share/resound/state"
	defaultLogDir         = "~/.local/share/resound/logs"
	defaultTempDir        = "~/.local/share/resound/tmp"
	defaultArchiveBaseURL = "https://archive.org"
	defaultCollection     = "hooting-yard"
	defaultCreator        = "Frank Key"
	defaultTimeoutSeconds = 30
	defaultRateLimitDelay = 1.0
	defaultRescanHours    = 24
	defaultPageSize       = 100
	defaultChunkSize      = 8192
	defaultResolution     = "1920x1080"
	defaultVideoCodec     = "libx264"
	defaultAudioCodec     = "aac"
	defaultAudioBitrate   = "192k"
	defaultFPS            = 30
	defaultPreset         = "medium"
	defaultCRF            = 23
	defaultIntervalDays   = 7
	defaultCategory       = "Entertainment"
	defaultCategoryID     = "24"
	defaultPrivacyStatus  = "public"
	defaultUploadsPerDay  = 5
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			RenderDir:   defaultRenderDir,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
			TempDir:     defaultTempDir,
		},
		Archive: Archive{
			BaseURL:        defaultArchiveBaseURL,
			Collection:     defaultCollection,
			Creator:        defaultCreator,
			TimeoutSeconds: defaultTimeoutSeconds,
			RateLimitDelay: defaultRateLimitDelay,
			RescanHours:    defaultRescanHours,
			PageSize:       defaultPageSize,
			ChunkSize:      defaultChunkSize,
			VerifyChecksum: true,
		},
		Conversion: Conversion{
			Resolution:   defaultResolution,
			VideoCodec:   defaultVideoCodec,
			AudioCodec:   defaultAudioCodec,
			AudioBitrate: defaultAudioBitrate,
			FPS:          defaultFPS,
			Preset:       defaultPreset,
			CRF:          defaultCRF,
		},
		YouTube: YouTube{
			IntervalDays:  defaultIntervalDays,
			Category:      defaultCategory,
			CategoryID:    defaultCategoryID,
			PrivacyStatus: defaultPrivacyStatus,
			DefaultTags:   []string{"Hooting Yard", "Frank Key", "Spoken Word"},
			UploadsPerDay: defaultUploadsPerDay,
		},
		State: State{
			MaxDownloadRetries:   3,
			MaxConversionRetries: 2,
			MaxUploadRetries:     3,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
