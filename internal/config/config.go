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

// Paths contains working, log, and cache directories.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
}

// Silence contains the silence-cut path settings.
type Silence struct {
	// ThresholdDB overrides the adaptive estimate when non-zero (e.g. -35).
	ThresholdDB   float64 `toml:"threshold_db"`
	AutoThreshold bool    `toml:"auto_threshold"`
	MinDuration   float64 `toml:"min_duration"`
	SpeechFilter  bool    `toml:"speech_filter"`
	DualPass      bool    `toml:"dual_pass"`
	PaddingBefore float64 `toml:"padding_before"`
	PaddingAfter  float64 `toml:"padding_after"`
	TrimPadding   float64 `toml:"trim_padding"`
	MinSegment    float64 `toml:"min_segment"`
	MergeGap      float64 `toml:"merge_gap"`
}

// Mistakes contains the speech-mistake path settings.
type Mistakes struct {
	// Preset is conservative, moderate, or aggressive.
	Preset string `toml:"preset"`
	// ConfidenceThreshold overrides the preset default when non-zero.
	ConfidenceThreshold float64  `toml:"confidence_threshold"`
	Language            string   `toml:"language"`
	FillerWords         bool     `toml:"filler_words"`
	RepeatedWords       bool     `toml:"repeated_words"`
	RepeatedPhrases     bool     `toml:"repeated_phrases"`
	FalseStarts         bool     `toml:"false_starts"`
	SelfCorrections     bool     `toml:"self_corrections"`
	Acoustic            bool     `toml:"acoustic"`
	Cleanup             bool     `toml:"cleanup"`
	CleanupChunkWords   int      `toml:"cleanup_chunk_words"`
	CleanupChunkOverlap int      `toml:"cleanup_chunk_overlap"`
	CleanupCache        bool     `toml:"cleanup_cache"`
	ExtraFillers        []string `toml:"extra_fillers"`
	ExtraFillerPhrases  []string `toml:"extra_filler_phrases"`
	PaddingBefore       float64  `toml:"padding_before"`
	PaddingAfter        float64  `toml:"padding_after"`
	TrimPadding         float64  `toml:"trim_padding"`
	MinSegment          float64  `toml:"min_segment"`
	MergeGap            float64  `toml:"merge_gap"`
}

// LLM contains the cleanup language-model connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Transcription contains WhisperX settings.
type Transcription struct {
	UVXBinary   string `toml:"uvx_binary"`
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
}

// Encoder contains the external media encoder and supervision settings.
type Encoder struct {
	FFmpegBinary      string `toml:"ffmpeg_binary"`
	FFprobeBinary     string `toml:"ffprobe_binary"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	KillGraceSeconds  int    `toml:"kill_grace_seconds"`
	MaxAttempts       int    `toml:"max_attempts"`
	BackoffSeconds    int    `toml:"backoff_seconds"`
	MaxBackoffSeconds int    `toml:"max_backoff_seconds"`
	VideoCodec        string `toml:"video_codec"`
	CRF               int    `toml:"crf"`
	Preset            string `toml:"preset"`
	AudioCodec        string `toml:"audio_codec"`
	AudioBitrate      string `toml:"audio_bitrate"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for timeback.
//
// Configuration sections by subsystem:
//   - Paths: work, log, and cache directories
//   - Silence: threshold estimation, detection, and keep-segment shaping
//   - Mistakes: detector toggles, aggressiveness, filler vocabulary
//   - LLM: cleanup service connection
//   - Transcription: WhisperX settings
//   - Encoder: ffmpeg binaries, encode settings, and supervision policy
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Silence       Silence       `toml:"silence"`
	Mistakes      Mistakes      `toml:"mistakes"`
	LLM           LLM           `toml:"llm"`
	Transcription Transcription `toml:"transcription"`
	Encoder       Encoder       `toml:"encoder"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
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
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
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
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("timeback.toml")
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

// EnsureDirectories creates the work, log, and cache directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CleanupCachePath returns the SQLite file used to memoize cleanup responses.
func (c *Config) CleanupCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "cleanup.db")
}

// ConfidenceThreshold resolves the mistake confidence gate from the explicit
// override or the preset.
func (c *Config) ConfidenceThreshold() float64 {
	if c.Mistakes.ConfidenceThreshold > 0 {
		return c.Mistakes.ConfidenceThreshold
	}
	return PresetThreshold(c.Mistakes.Preset)
}

// PresetThreshold maps an aggressiveness preset to its confidence gate.
// Unknown presets resolve to moderate.
func PresetThreshold(preset string) float64 {
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case PresetConservative:
		return 0.80
	case PresetAggressive:
		return 0.40
	default:
		return 0.60
	}
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
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
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

// Encode renders the config as TOML, with the API key and HF token masked.
func (c *Config) Encode() (string, error) {
	masked := *c
	if masked.LLM.APIKey != "" {
		masked.LLM.APIKey = "********"
	}
	if masked.Transcription.HFToken != "" {
		masked.Transcription.HFToken = "********"
	}
	out, err := toml.Marshal(masked)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(out), nil
}
