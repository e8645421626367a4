package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultBinary is used when no ffmpeg path is configured.
const DefaultBinary = "ffmpeg"

// Runner executes a binary and returns its captured output. ffmpeg writes
// analysis filter reports to stderr, so both streams are returned.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		err = fmt.Errorf("%s: %w: %s", binary, err, Tail(stderr.String(), 6))
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// AnalysisArgs builds the common prefix for a decode-only analysis pass over
// [start, start+duration) of path with the given audio filter chain. A zero
// duration analyses to the end of the input.
func AnalysisArgs(path string, start, duration float64, filter string) []string {
	args := []string{"-hide_banner", "-nostats", "-nostdin"}
	if start > 0 {
		args = append(args, "-ss", Seconds(start))
	}
	if duration > 0 {
		args = append(args, "-t", Seconds(duration))
	}
	args = append(args, "-i", path, "-vn", "-sn", "-dn", "-map", "0:a:0?")
	if filter != "" {
		args = append(args, "-af", filter)
	}
	return append(args, "-f", "null", "-")
}

// Seconds formats a timestamp the way ffmpeg expects on the command line.
func Seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// Tail returns the last n non-empty lines of output, joined by " | ".
func Tail(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, " | ")
}
