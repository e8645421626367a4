package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"timeback/internal/config"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" || results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected missing status %#v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank status %#v", results[2])
	}
}

type versionRunner struct {
	out map[string]string
	err error
}

func (r versionRunner) Run(_ context.Context, binary string, _ []string) ([]byte, []byte, error) {
	if r.err != nil {
		return nil, nil, r.err
	}
	return []byte(r.out[filepath.Base(binary)]), nil, nil
}

func TestCheckRecordsVersions(t *testing.T) {
	dir := t.TempDir()
	ffmpegPath := writeStub(t, dir, "ffmpeg")
	reqs := []Requirement{
		{Name: "FFmpeg", Command: ffmpegPath, VersionArgs: []string{"-version"}},
		{Name: "uvx", Command: "clearly-not-present-uvx", Optional: true, VersionArgs: []string{"--version"}},
	}
	runner := versionRunner{out: map[string]string{"ffmpeg": "\nffmpeg version 7.1 Copyright (c) 2000-2024\nbuilt with gcc\n"}}

	statuses := Check(context.Background(), runner, reqs)
	if statuses[0].Version != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Fatalf("unexpected version %q", statuses[0].Version)
	}
	if missing := Missing(statuses); len(missing) != 0 {
		t.Fatalf("optional dependencies must not be reported missing: %+v", missing)
	}

	broken := Check(context.Background(), versionRunner{err: errors.New("exec format error")}, reqs[:1])
	if broken[0].Available || len(Missing(broken)) != 1 {
		t.Fatalf("failed version probe should mark the binary unavailable: %+v", broken[0])
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"
	reqs := Requirements(&cfg)
	if len(reqs) != 3 || reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" || !reqs[2].Optional {
		t.Fatalf("unexpected requirements %+v", reqs)
	}
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func TestCheckService(t *testing.T) {
	ok := CheckService(context.Background(), "Cleanup LLM", "https://llm.example", "cleanup detector", stubChecker{})
	if !ok.Available || !ok.Optional || ok.Command != "https://llm.example" || ok.Detail != "reachable" {
		t.Fatalf("unexpected healthy status %#v", ok)
	}

	down := CheckService(context.Background(), "Cleanup LLM", "https://llm.example", "cleanup detector", stubChecker{err: errors.New("401 unauthorized")})
	if down.Available || down.Detail != "health check failed: 401 unauthorized" {
		t.Fatalf("unexpected failing status %#v", down)
	}
	if len(Missing([]Status{down})) != 0 {
		t.Fatal("an unreachable optional service must not count as missing")
	}
}
