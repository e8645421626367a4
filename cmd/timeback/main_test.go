package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"timeback/internal/segments"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(nil)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("TIMEBACK_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	return home
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	home := setupHome(t)
	target := filepath.Join(home, "timeback.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}

	out, err = runCLI(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, target)
}

func TestRenderRequiresOutput(t *testing.T) {
	home := setupHome(t)
	target := filepath.Join(home, "timeback.toml")
	if _, err := runCLI(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("config init: %v", err)
	}
	_, err := runCLI(t, "--config", target, "render", "in.mp4", "plan.json")
	if err == nil || !strings.Contains(err.Error(), "--output") {
		t.Fatalf("expected missing output error, got %v", err)
	}
}

func TestSegmentPlanRoundTripAndBareArray(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.json")
	keep := []segments.KeepSegment{{Start: 0, End: 10.05}, {Start: 11.95, End: 60}}
	if err := writeSegmentPlan(planPath, segmentPlan{Input: "talk.mp4", Duration: 60, Keep: keep}); err != nil {
		t.Fatalf("writeSegmentPlan: %v", err)
	}
	plan, err := readSegmentPlan(planPath)
	if err != nil {
		t.Fatalf("readSegmentPlan: %v", err)
	}
	if plan.Input != "talk.mp4" || len(plan.Keep) != 2 || plan.Keep[1] != keep[1] {
		t.Fatalf("unexpected plan %+v", plan)
	}

	barePath := filepath.Join(dir, "bare.json")
	if err := os.WriteFile(barePath, []byte(`[{"start":1,"end":2}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	plan, err = readSegmentPlan(barePath)
	if err != nil {
		t.Fatalf("readSegmentPlan bare: %v", err)
	}
	if len(plan.Keep) != 1 || plan.Keep[0] != (segments.KeepSegment{Start: 1, End: 2}) {
		t.Fatalf("unexpected bare plan %+v", plan)
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"keep":`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readSegmentPlan(badPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[float64]string{
		0:       "0:00.000",
		10.05:   "0:10.050",
		61.5:    "1:01.500",
		3725.25: "1:02:05.250",
		-1:      "0:00.000",
	}
	for in, want := range cases {
		if got := formatClock(in); got != want {
			t.Fatalf("formatClock(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestSegmentTable(t *testing.T) {
	out := segmentTable([]segments.KeepSegment{{Start: 0, End: 10.05}, {Start: 11.95, End: 60}})
	requireContains(t, out, "0:10.050")
	requireContains(t, out, "48.05s")
	requireContains(t, out, "Length")
}
