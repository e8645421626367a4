package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"timeback/internal/config"
)

func TestLoadDefaultConfigExpandsPathsAndReadsEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("TIMEBACK_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "timeback", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if want := filepath.Join(tempHome, ".local", "share", "timeback", "work"); cfg.Paths.WorkDir != want {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, want)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Silence.MinDuration != 0.3 {
		t.Fatalf("unexpected min duration %v", cfg.Silence.MinDuration)
	}
	if got := cfg.ConfidenceThreshold(); got != 0.60 {
		t.Fatalf("expected moderate threshold 0.60, got %v", got)
	}
	if cfg.CleanupCachePath() != filepath.Join(tempHome, ".cache", "timeback", "cleanup.db") {
		t.Fatalf("unexpected cache path %q", cfg.CleanupCachePath())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "timeback.toml")
	content := `
[silence]
threshold_db = -42
auto_threshold = false

[mistakes]
preset = "Aggressive"
extra_fillers = ["  basically ", ""]

[encoder]
max_attempts = 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Silence.ThresholdDB != -42 || cfg.Silence.AutoThreshold {
		t.Fatalf("unexpected silence settings %+v", cfg.Silence)
	}
	if cfg.Mistakes.Preset != config.PresetAggressive || cfg.ConfidenceThreshold() != 0.40 {
		t.Fatalf("unexpected preset %q threshold %v", cfg.Mistakes.Preset, cfg.ConfidenceThreshold())
	}
	if len(cfg.Mistakes.ExtraFillers) != 1 || cfg.Mistakes.ExtraFillers[0] != "basically" {
		t.Fatalf("unexpected extra fillers %q", cfg.Mistakes.ExtraFillers)
	}
	if cfg.Encoder.MaxAttempts != 5 {
		t.Fatalf("unexpected max attempts %d", cfg.Encoder.MaxAttempts)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cases := map[string]string{
		"preset":    "[mistakes]\npreset = \"reckless\"\n",
		"positive":  "[silence]\nthreshold_db = 3\n",
		"manual":    "[silence]\nauto_threshold = false\n",
		"logformat": "[logging]\nformat = \"xml\"\n",
		"unknown":   "[silence]\nthreshold = -30\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), name+".toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, _, _, err := config.Load(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestPresetThreshold(t *testing.T) {
	cases := map[string]float64{
		"conservative": 0.80,
		"moderate":     0.60,
		"aggressive":   0.40,
		"":             0.60,
	}
	for preset, want := range cases {
		if got := config.PresetThreshold(preset); got != want {
			t.Fatalf("PresetThreshold(%q) = %v, want %v", preset, got, want)
		}
	}
}

func TestSampleConfigDecodesCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	decoder := toml.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		t.Fatalf("sample config does not decode: %v", err)
	}
	if cfg.Encoder.KillGraceSeconds != 5 {
		t.Fatalf("unexpected kill grace %d", cfg.Encoder.KillGraceSeconds)
	}
}

func TestEncodeMasksSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "secret"
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if strings.Contains(out, "secret") {
		t.Fatalf("api key leaked: %s", out)
	}
}
