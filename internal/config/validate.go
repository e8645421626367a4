package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSilence(); err != nil {
		return err
	}
	if err := c.validateMistakes(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSilence() error {
	s := c.Silence
	if s.ThresholdDB > 0 {
		return errors.New("silence.threshold_db must be negative dBFS (or 0 for automatic)")
	}
	if s.ThresholdDB == 0 && !s.AutoThreshold {
		return errors.New("silence.threshold_db must be set when silence.auto_threshold is false")
	}
	if s.MinDuration <= 0 {
		return errors.New("silence.min_duration must be positive")
	}
	return validateShaping("silence", s.PaddingBefore, s.PaddingAfter, s.TrimPadding, s.MinSegment, s.MergeGap)
}

func (c *Config) validateMistakes() error {
	m := c.Mistakes
	switch m.Preset {
	case PresetConservative, PresetModerate, PresetAggressive:
	default:
		return fmt.Errorf("mistakes.preset must be %s, %s, or %s (got %q)", PresetConservative, PresetModerate, PresetAggressive, m.Preset)
	}
	if m.ConfidenceThreshold < 0 || m.ConfidenceThreshold > 1 {
		return errors.New("mistakes.confidence_threshold must be between 0 and 1")
	}
	if m.CleanupChunkOverlap >= m.CleanupChunkWords {
		return errors.New("mistakes.cleanup_chunk_overlap must be smaller than mistakes.cleanup_chunk_words")
	}
	return validateShaping("mistakes", m.PaddingBefore, m.PaddingAfter, m.TrimPadding, m.MinSegment, m.MergeGap)
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
		return nil
	default:
		return fmt.Errorf("transcription.vad_method must be silero or pyannote (got %q)", c.Transcription.VADMethod)
	}
}

func (c *Config) validateEncoder() error {
	e := c.Encoder
	if e.TimeoutSeconds < 0 {
		return errors.New("encoder.timeout_seconds must be >= 0")
	}
	if e.BackoffSeconds < 0 || e.MaxBackoffSeconds < 0 {
		return errors.New("encoder backoff values must be >= 0")
	}
	if e.CRF < 0 || e.CRF > 51 {
		return errors.New("encoder.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
}

func validateShaping(section string, before, after, trim, minSegment, mergeGap float64) error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"padding_before", before},
		{"padding_after", after},
		{"trim_padding", trim},
		{"min_segment", minSegment},
		{"merge_gap", mergeGap},
	} {
		if v.value < 0 {
			return fmt.Errorf("%s.%s must be >= 0", section, v.name)
		}
	}
	return nil
}
