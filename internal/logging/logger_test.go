package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"timeback/internal/config"
	"timeback/internal/logging"
	"timeback/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "out.log")
	off := false
	logger, err := logging.New(logging.Options{
		Format:      format,
		Level:       level,
		OutputPaths: []string{logPath},
		Color:       &off,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "silence").Info("threshold chosen", logging.Float64("threshold_db", -38.5))
	logger.Debug("hidden unless debug")
	return logPath, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestConsoleLoggerFormatsComponentAndAttrs(t *testing.T) {
	_, read := newFileLogger(t, "console", "info")
	content := read()
	if !strings.Contains(content, "INFO silence: threshold chosen") {
		t.Fatalf("unexpected console line %q", content)
	}
	if !strings.Contains(content, "threshold_db=-38.5") {
		t.Fatalf("expected attribute in %q", content)
	}
	if strings.Contains(content, "hidden unless debug") {
		t.Fatalf("debug line leaked at info level: %q", content)
	}
	if strings.Contains(content, "\x1b[") {
		t.Fatalf("expected no ANSI codes when color disabled: %q", content)
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	_, read := newFileLogger(t, "json", "info")
	line := strings.TrimSpace(strings.Split(read(), "\n")[0])
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %v", payload)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if payload["component"] != "silence" {
		t.Fatalf("expected component, got %v", payload["component"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigCreatesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Warn("disk check")
	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "timeback.log")); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "talk.mp4")
	ctx = services.WithRequestID(ctx, "req-1")
	fields := logging.ContextFields(ctx)
	if !logging.HasAttrKey(fields, logging.FieldJobID) || !logging.HasAttrKey(fields, logging.FieldCorrelationID) {
		t.Fatalf("expected job and correlation fields, got %v", fields)
	}
	if logging.WithContext(ctx, nil) == nil {
		t.Fatal("expected logger")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "cleanup failed", "cleanup_degraded", logging.String(logging.FieldImpact, "rule-based only"))
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{`"event_type":"cleanup_degraded"`, `"error_hint"`, `"impact":"rule-based only"`} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in %s", want, content)
		}
	}
}
