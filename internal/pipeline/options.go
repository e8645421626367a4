package pipeline

import (
	"timeback/internal/config"
	"timeback/internal/mistakes"
	"timeback/internal/segments"
)

// SilenceOptions configures the silence path.
type SilenceOptions struct {
	// ThresholdDB overrides the adaptive estimate when non-zero.
	ThresholdDB float64
	// AutoThreshold estimates the threshold from loudness statistics. When
	// off and no override is set, silence.FallbackThresholdDB applies.
	AutoThreshold bool
	MinDuration   float64
	SpeechFilter  bool
	DualPass      bool
	Shaping       segments.Options
}

// MistakeConfig configures the mistake path.
type MistakeConfig struct {
	Categories mistakes.Categories
	// Threshold is the minimum merged confidence for a mistake to be cut.
	Threshold          float64
	Language           string
	ExtraFillers       []string
	ExtraFillerPhrases []string
	Acoustic           bool
	Cleanup            bool
	CleanupChunkWords  int
	CleanupOverlap     int
	// Silence drives the silence pass used by the acoustic detector.
	Silence SilenceOptions
	Shaping segments.Options
}

// SilenceOptionsFrom maps the [silence] config section.
func SilenceOptionsFrom(cfg config.Silence) SilenceOptions {
	return SilenceOptions{
		ThresholdDB:   cfg.ThresholdDB,
		AutoThreshold: cfg.AutoThreshold,
		MinDuration:   cfg.MinDuration,
		SpeechFilter:  cfg.SpeechFilter,
		DualPass:      cfg.DualPass,
		Shaping: segments.Options{
			TrimPadding: cfg.TrimPadding,
			MinSegment:  cfg.MinSegment,
			MergeGap:    cfg.MergeGap,
			PadBefore:   cfg.PaddingBefore,
			PadAfter:    cfg.PaddingAfter,
		},
	}
}

// MistakeConfigFrom maps the [mistakes] and [silence] config sections.
func MistakeConfigFrom(cfg *config.Config) MistakeConfig {
	m := cfg.Mistakes
	silence := SilenceOptionsFrom(cfg.Silence)
	silence.DualPass = false
	return MistakeConfig{
		Categories: mistakes.Categories{
			FillerWords:     m.FillerWords,
			RepeatedWords:   m.RepeatedWords,
			RepeatedPhrases: m.RepeatedPhrases,
			FalseStarts:     m.FalseStarts,
			SelfCorrections: m.SelfCorrections,
		},
		Threshold:          cfg.ConfidenceThreshold(),
		Language:           m.Language,
		ExtraFillers:       m.ExtraFillers,
		ExtraFillerPhrases: m.ExtraFillerPhrases,
		Acoustic:           m.Acoustic,
		Cleanup:            m.Cleanup,
		CleanupChunkWords:  m.CleanupChunkWords,
		CleanupOverlap:     m.CleanupChunkOverlap,
		Silence:            silence,
		Shaping: segments.Options{
			TrimPadding: m.TrimPadding,
			MinSegment:  m.MinSegment,
			MergeGap:    m.MergeGap,
			PadBefore:   m.PaddingBefore,
			PadAfter:    m.PaddingAfter,
		},
	}
}
