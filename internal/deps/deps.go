package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"timeback/internal/config"
	"timeback/internal/media/ffmpeg"
)

// Requirement is an external binary timeback shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs prints a version banner; empty skips version probing.
	VersionArgs []string
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Requirements lists the binaries the configuration points at. uvx is only
// needed when mistakes are detected from a fresh WhisperX transcript.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Encoder.FFmpegBinary,
			Description: "Loudness analysis, silence detection and rendering",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Encoder.FFprobeBinary,
			Description: "Duration and stream inspection",
			VersionArgs: []string{"-hide_banner", "-version"},
		},
		{
			Name:        "uvx",
			Command:     cfg.Transcription.UVXBinary,
			Description: "Runs WhisperX for word-level transcripts",
			Optional:    true,
			VersionArgs: []string{"--version"},
		},
	}
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Check resolves requirements and, for the ones found, records the first
// line of their version banner. A binary that is found but fails to report a
// version is marked unavailable.
func Check(ctx context.Context, runner ffmpeg.Runner, requirements []Requirement) []Status {
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	statuses := CheckBinaries(requirements)
	for i, req := range requirements {
		if !statuses[i].Available || len(req.VersionArgs) == 0 {
			continue
		}
		stdout, stderr, err := runner.Run(ctx, statuses[i].Command, req.VersionArgs)
		if err != nil {
			statuses[i].Available = false
			statuses[i].Detail = fmt.Sprintf("version check failed: %v", err)
			continue
		}
		statuses[i].Version = firstLine(string(stdout))
		if statuses[i].Version == "" {
			statuses[i].Version = firstLine(string(stderr))
		}
	}
	return statuses
}

// HealthChecker verifies that a remote service answers.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckService reports a remote service as an optional dependency row.
func CheckService(ctx context.Context, name, target, description string, checker HealthChecker) Status {
	status := Status{
		Name:        name,
		Command:     target,
		Description: description,
		Optional:    true,
	}
	if err := checker.HealthCheck(ctx); err != nil {
		status.Detail = fmt.Sprintf("health check failed: %v", err)
		return status
	}
	status.Available = true
	status.Detail = "reachable"
	return status
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

func firstLine(s string) string {
	for line := range strings.SplitSeq(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
