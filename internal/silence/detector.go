package silence

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"timeback/internal/logging"
	"timeback/internal/media/ffmpeg"
	"timeback/internal/segments"
	"timeback/internal/services"
)

const (
	// DefaultMinDuration suppresses breaths and consonant gaps.
	DefaultMinDuration = 0.3
	speechHighpassHz   = 200
	speechLowpassHz    = 3500
)

// DetectOptions configures one silencedetect pass.
type DetectOptions struct {
	ThresholdDB float64
	MinDuration float64
	// SpeechFilter band-passes to the speech band first so rumble and hiss
	// do not mask silence.
	SpeechFilter bool
	// Duration closes a silence still open at end of stream.
	Duration float64
}

// Detector runs ffmpeg silencedetect.
type Detector struct {
	binary string
	runner ffmpeg.Runner
	logger *slog.Logger
}

// NewDetector constructs a detector. A nil runner uses os/exec.
func NewDetector(binary string, runner ffmpeg.Runner, logger *slog.Logger) *Detector {
	if strings.TrimSpace(binary) == "" {
		binary = ffmpeg.DefaultBinary
	}
	if runner == nil {
		runner = ffmpeg.ExecRunner{}
	}
	return &Detector{binary: binary, runner: runner, logger: logging.NewComponentLogger(logger, "silence")}
}

// Detect scans the whole track and returns silence intervals ordered by start.
func (d *Detector) Detect(ctx context.Context, path string, opts DetectOptions) ([]segments.Interval, error) {
	if opts.MinDuration <= 0 {
		opts.MinDuration = DefaultMinDuration
	}
	args := ffmpeg.AnalysisArgs(path, 0, 0, Filter(opts))
	_, stderr, err := d.runner.Run(ctx, d.binary, args)
	if err != nil {
		return nil, services.Wrap(services.ErrAnalysis, "silence", "silencedetect", "", err)
	}
	intervals := ParseSilenceDetect(string(stderr), opts.Duration)
	logging.WithContext(ctx, d.logger).Debug("silence pass complete",
		logging.Float64("threshold_db", opts.ThresholdDB),
		logging.Float64("min_duration", opts.MinDuration),
		logging.Bool("speech_filter", opts.SpeechFilter),
		logging.Int("intervals", len(intervals)),
	)
	return intervals, nil
}

// Filter renders the ffmpeg audio filter chain for opts.
func Filter(opts DetectOptions) string {
	detect := fmt.Sprintf("silencedetect=noise=%sdB:d=%s",
		strconv.FormatFloat(opts.ThresholdDB, 'f', 1, 64),
		strconv.FormatFloat(opts.MinDuration, 'f', 3, 64))
	if !opts.SpeechFilter {
		return detect
	}
	return fmt.Sprintf("highpass=f=%d,lowpass=f=%d,%s", speechHighpassHz, speechLowpassHz, detect)
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)
)

// ParseSilenceDetect extracts intervals from silencedetect output:
//
//	[silencedetect @ 0x...] silence_start: 42.123
//	[silencedetect @ 0x...] silence_end: 43.456 | silence_duration: 1.333
//
// A start without a matching end runs to duration.
func ParseSilenceDetect(output string, duration float64) []segments.Interval {
	var intervals []segments.Interval
	var start float64
	open := false

	for line := range strings.SplitSeq(output, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				start = max(v, 0)
				open = true
			}
			continue
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && open {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > start {
				intervals = append(intervals, segments.Interval{Start: start, End: v})
			}
			open = false
		}
	}
	if open && duration > start {
		intervals = append(intervals, segments.Interval{Start: start, End: duration})
	}
	return intervals
}

// Percent returns the share of duration covered by intervals, 0-100.
func Percent(intervals []segments.Interval, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	var total float64
	for _, iv := range segments.Normalize(intervals, duration) {
		total += iv.Duration()
	}
	return total / duration * 100
}
