package config

const (
	defaultConfigPath = "~/.config/timeback/config.toml"
	defaultWorkDir    = "~/.local/share/timeback/work"
	defaultLogDir     = "~/.local/share/timeback/logs"
	defaultCacheDir   = "~/.cache/timeback"

	defaultSilenceMinDuration   = 0.3
	defaultSilencePaddingBefore = 0.05
	defaultSilencePaddingAfter  = 0.10
	defaultSilenceMinSegment    = 0.15
	defaultSilenceMergeGap      = 0.2

	defaultMistakeLanguage     = "en"
	defaultMistakeTrimPadding  = 0.015
	defaultMistakeMinSegment   = 0.05
	defaultMistakeMergeGap     = 0.05
	defaultMistakePaddingAfter = 0.02
	defaultCleanupChunkWords   = 400
	defaultCleanupChunkOverlap = 40

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMTitle          = "timeback transcript cleanup"
	defaultLLMTimeoutSeconds = 60

	defaultUVXBinary = "uvx"
	defaultVADMethod = "silero"

	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultEncoderTimeout    = 3600
	defaultKillGraceSeconds  = 5
	defaultMaxAttempts       = 3
	defaultBackoffSeconds    = 2
	defaultMaxBackoffSeconds = 30
	defaultVideoCodec        = "libx264"
	defaultCRF               = 20
	defaultEncoderPreset     = "veryfast"
	defaultAudioCodec        = "aac"
	defaultAudioBitrate      = "192k"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Aggressiveness presets for the mistake path.
const (
	PresetConservative = "conservative"
	PresetModerate     = "moderate"
	PresetAggressive   = "aggressive"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Silence: Silence{
			AutoThreshold: true,
			MinDuration:   defaultSilenceMinDuration,
			SpeechFilter:  true,
			DualPass:      true,
			PaddingBefore: defaultSilencePaddingBefore,
			PaddingAfter:  defaultSilencePaddingAfter,
			MinSegment:    defaultSilenceMinSegment,
			MergeGap:      defaultSilenceMergeGap,
		},
		Mistakes: Mistakes{
			Preset:              PresetModerate,
			Language:            defaultMistakeLanguage,
			FillerWords:         true,
			RepeatedWords:       true,
			RepeatedPhrases:     true,
			FalseStarts:         true,
			SelfCorrections:     true,
			Acoustic:            true,
			Cleanup:             false,
			CleanupChunkWords:   defaultCleanupChunkWords,
			CleanupChunkOverlap: defaultCleanupChunkOverlap,
			CleanupCache:        true,
			PaddingAfter:        defaultMistakePaddingAfter,
			TrimPadding:         defaultMistakeTrimPadding,
			MinSegment:          defaultMistakeMinSegment,
			MergeGap:            defaultMistakeMergeGap,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Transcription: Transcription{
			UVXBinary: defaultUVXBinary,
			VADMethod: defaultVADMethod,
		},
		Encoder: Encoder{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			TimeoutSeconds:    defaultEncoderTimeout,
			KillGraceSeconds:  defaultKillGraceSeconds,
			MaxAttempts:       defaultMaxAttempts,
			BackoffSeconds:    defaultBackoffSeconds,
			MaxBackoffSeconds: defaultMaxBackoffSeconds,
			VideoCodec:        defaultVideoCodec,
			CRF:               defaultCRF,
			Preset:            defaultEncoderPreset,
			AudioCodec:        defaultAudioCodec,
			AudioBitrate:      defaultAudioBitrate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
