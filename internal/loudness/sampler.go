package loudness

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"timeback/internal/logging"
	"timeback/internal/media/ffmpeg"
	"timeback/internal/services"
)

const (
	// DefaultChunkSeconds is the volumedetect window length.
	DefaultChunkSeconds = 30.0
	// DefaultConcurrency caps simultaneous ffmpeg decoders.
	DefaultConcurrency = 3
	// DefaultWindowSeconds bounds the astats sample at the start of the track.
	DefaultWindowSeconds = 60.0

	// minChunkSeconds folds a tiny trailing remainder into the previous chunk.
	minChunkSeconds = 1.0
)

// ChunkStats is the volumedetect result for one chunk.
type ChunkStats struct {
	Start        float64 `json:"start"`
	Duration     float64 `json:"duration"`
	MaxVolumeDB  float64 `json:"max_volume_db"`
	MeanVolumeDB float64 `json:"mean_volume_db"`
}

// WindowStats is the astats result for the sampled window. Silent is set
// when the window was digital silence (levels printed as -inf); the level
// fields are then zero and carry no information.
type WindowStats struct {
	PeakLevelDB    float64 `json:"peak_level_db"`
	RMSLevelDB     float64 `json:"rms_level_db"`
	DynamicRangeDB float64 `json:"dynamic_range_db"`
	Silent         bool    `json:"silent,omitempty"`
}

// Sampler runs ffmpeg loudness analyses.
type Sampler struct {
	binary       string
	runner       ffmpeg.Runner
	chunkSeconds float64
	concurrency  int
	logger       *slog.Logger
}

// Option customizes the sampler.
type Option func(*Sampler)

// WithRunner overrides the command runner (useful for tests).
func WithRunner(r ffmpeg.Runner) Option {
	return func(s *Sampler) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithChunkSeconds overrides the chunk length.
func WithChunkSeconds(seconds float64) Option {
	return func(s *Sampler) {
		if seconds > 0 {
			s.chunkSeconds = seconds
		}
	}
}

// WithConcurrency overrides how many chunks are analysed at once.
func WithConcurrency(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) {
		s.logger = logger
	}
}

// NewSampler constructs a sampler for the given ffmpeg binary.
func NewSampler(binary string, opts ...Option) *Sampler {
	if strings.TrimSpace(binary) == "" {
		binary = ffmpeg.DefaultBinary
	}
	s := &Sampler{
		binary:       binary,
		runner:       ffmpeg.ExecRunner{},
		chunkSeconds: DefaultChunkSeconds,
		concurrency:  DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "loudness")
	return s
}

// SampleChunks analyses the whole track in chunks and returns per-chunk stats
// in track order. Chunks that report no level (digital silence printed as
// -inf) are omitted. Any decode failure aborts the run with ErrAnalysis.
func (s *Sampler) SampleChunks(ctx context.Context, path string, duration float64) ([]ChunkStats, error) {
	windows := chunkWindows(duration, s.chunkSeconds)
	if len(windows) == 0 {
		return nil, services.Wrap(services.ErrAnalysis, "loudness", "sample chunks", "track duration unknown", nil)
	}

	results := make([]*ChunkStats, len(windows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, win := range windows {
		g.Go(func() error {
			args := ffmpeg.AnalysisArgs(path, win[0], win[1], "volumedetect")
			_, stderr, err := s.runner.Run(gctx, s.binary, args)
			if err != nil {
				return services.Wrap(services.ErrAnalysis, "loudness", "volumedetect", fmt.Sprintf("chunk at %.1fs", win[0]), err)
			}
			stats, ok := ParseVolumeDetect(string(stderr))
			if !ok {
				return nil
			}
			stats.Start = win[0]
			stats.Duration = win[1]
			results[i] = &stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]ChunkStats, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	logging.WithContext(ctx, s.logger).Debug("loudness chunks sampled",
		logging.Int("chunks", len(windows)),
		logging.Int("measured", len(out)),
	)
	return out, nil
}

// SampleWindow runs astats over the first min(seconds, duration) of the track.
// A window of digital silence is not an error; it comes back with Silent set.
func (s *Sampler) SampleWindow(ctx context.Context, path string, duration, seconds float64) (WindowStats, error) {
	if seconds <= 0 {
		seconds = DefaultWindowSeconds
	}
	if duration > 0 && duration < seconds {
		seconds = duration
	}
	args := ffmpeg.AnalysisArgs(path, 0, seconds, "astats=metadata=0:reset=0")
	_, stderr, err := s.runner.Run(ctx, s.binary, args)
	if err != nil {
		return WindowStats{}, services.Wrap(services.ErrAnalysis, "loudness", "astats", "", err)
	}
	stats, ok := ParseAStats(string(stderr))
	if !ok {
		return WindowStats{}, services.Wrap(services.ErrAnalysis, "loudness", "astats", "no level statistics in ffmpeg output", nil)
	}
	if stats.Silent {
		logging.WithContext(ctx, s.logger).Debug("loudness window is digital silence",
			logging.Float64("window_seconds", seconds),
		)
	}
	return stats, nil
}

// chunkWindows splits [0, duration) into [start, length] pairs.
func chunkWindows(duration, chunk float64) [][2]float64 {
	if duration <= 0 || chunk <= 0 {
		return nil
	}
	var windows [][2]float64
	for start := 0.0; start < duration; start += chunk {
		length := math.Min(chunk, duration-start)
		if length < minChunkSeconds && len(windows) > 0 {
			windows[len(windows)-1][1] += length
			break
		}
		windows = append(windows, [2]float64{start, length})
	}
	return windows
}

var (
	maxVolumeRe  = regexp.MustCompile(`max_volume:\s*(-?[\d.]+|-inf)\s*dB`)
	meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?[\d.]+|-inf)\s*dB`)
	peakLevelRe  = regexp.MustCompile(`Peak level dB:\s*(-?[\d.]+|-inf)`)
	rmsLevelRe   = regexp.MustCompile(`RMS level dB:\s*(-?[\d.]+|-inf)`)
)

// ParseVolumeDetect extracts max and mean volume from volumedetect output.
//
//	[Parsed_volumedetect_0 @ 0x...] mean_volume: -27.4 dB
//	[Parsed_volumedetect_0 @ 0x...] max_volume: -6.1 dB
func ParseVolumeDetect(output string) (ChunkStats, bool) {
	maxDB, okMax := lastFloat(maxVolumeRe, output)
	meanDB, okMean := lastFloat(meanVolumeRe, output)
	if !okMax || !okMean {
		return ChunkStats{}, false
	}
	return ChunkStats{MaxVolumeDB: maxDB, MeanVolumeDB: meanDB}, true
}

// ParseAStats extracts peak and RMS levels from astats output, preferring the
// "Overall" section over per-channel sections. A -inf level yields a Silent
// window.
func ParseAStats(output string) (WindowStats, bool) {
	section := output
	if idx := strings.LastIndex(output, "Overall"); idx >= 0 {
		section = output[idx:]
	}
	if firstRaw(peakLevelRe, section) == "-inf" || firstRaw(rmsLevelRe, section) == "-inf" {
		return WindowStats{Silent: true}, true
	}
	peak, okPeak := firstFloat(peakLevelRe, section)
	rms, okRMS := firstFloat(rmsLevelRe, section)
	if !okPeak || !okRMS {
		return WindowStats{}, false
	}
	return WindowStats{PeakLevelDB: peak, RMSLevelDB: rms, DynamicRangeDB: peak - rms}, true
}

func lastFloat(re *regexp.Regexp, output string) (float64, bool) {
	matches := re.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return 0, false
	}
	return parseLevel(matches[len(matches)-1][1])
}

func firstFloat(re *regexp.Regexp, output string) (float64, bool) {
	raw := firstRaw(re, output)
	if raw == "" {
		return 0, false
	}
	return parseLevel(raw)
}

func firstRaw(re *regexp.Regexp, output string) string {
	match := re.FindStringSubmatch(output)
	if match == nil {
		return ""
	}
	return match[1]
}

func parseLevel(raw string) (float64, bool) {
	if raw == "-inf" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
