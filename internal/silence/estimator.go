package silence

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"timeback/internal/logging"
	"timeback/internal/loudness"
)

// NoiseClass buckets a recording by dynamic range (peak minus RMS).
type NoiseClass string

const (
	NoiseClean    NoiseClass = "clean"
	NoiseModerate NoiseClass = "moderate"
	NoiseNoisy    NoiseClass = "noisy"
)

// Classification boundaries and clamp range, in dB.
const (
	noisyDynamicRange    = 10.0
	moderateDynamicRange = 15.0

	// MinThresholdDB is the quietest threshold the estimator will return.
	MinThresholdDB = -60.0
	// MaxThresholdDB is the loudest threshold for clean and moderate audio.
	MaxThresholdDB = -20.0
	// MaxNoisyThresholdDB is the loudest threshold for noisy audio. Silence
	// in a noisy room sits closer to speech level, so the cap is looser.
	MaxNoisyThresholdDB = -16.0

	// FallbackThresholdDB is used when no chunk produced a usable level.
	FallbackThresholdDB = -35.0

	// aggressiveOffset feeds a "max - 12 dB" candidate for clean audio.
	aggressiveOffset = 12.0
	aggressiveWeight = 0.10
	// peakRelativeOffset feeds a "peak - 6 dB" candidate for noisy audio.
	peakRelativeOffset = 6.0
	peakRelativeWeight = 0.15
)

// classProfile holds the fixed offsets (dB below each reference level) and
// weights used for one noise class. Noisier audio uses smaller offsets so the
// threshold sits higher, and leans more on RMS than on the peak.
type classProfile struct {
	peakOffset, meanOffset, rmsOffset float64
	peakWeight, meanWeight, rmsWeight float64
}

var profiles = map[NoiseClass]classProfile{
	NoiseClean:    {peakOffset: 35, meanOffset: 12, rmsOffset: 15, peakWeight: 0.35, meanWeight: 0.35, rmsWeight: 0.20},
	NoiseModerate: {peakOffset: 32, meanOffset: 10, rmsOffset: 12, peakWeight: 0.35, meanWeight: 0.35, rmsWeight: 0.30},
	NoiseNoisy:    {peakOffset: 28, meanOffset: 8, rmsOffset: 9, peakWeight: 0.30, meanWeight: 0.30, rmsWeight: 0.25},
}

// Candidate is one weighted threshold proposal.
type Candidate struct {
	Name    string  `json:"name"`
	ValueDB float64 `json:"value_db"`
	Weight  float64 `json:"weight"`
}

// Estimate is the estimator's output plus the inputs that produced it.
type Estimate struct {
	ThresholdDB  float64              `json:"threshold_db"`
	NoiseClass   NoiseClass           `json:"noise_class"`
	MedianMaxDB  float64              `json:"median_max_db"`
	MedianMeanDB float64              `json:"median_mean_db"`
	Window       loudness.WindowStats `json:"window"`
	Candidates   []Candidate          `json:"candidates"`
	MinDB        float64              `json:"min_db"`
	MaxDB        float64              `json:"max_db"`
	Clamped      bool                 `json:"clamped"`
	Fallback     bool                 `json:"fallback"`
}

// ClassifyNoise maps a dynamic range to a noise class.
func ClassifyNoise(dynamicRangeDB float64) NoiseClass {
	switch {
	case dynamicRangeDB < noisyDynamicRange:
		return NoiseNoisy
	case dynamicRangeDB < moderateDynamicRange:
		return NoiseModerate
	default:
		return NoiseClean
	}
}

// Bounds returns the clamp range for a noise class.
func Bounds(class NoiseClass) (float64, float64) {
	if class == NoiseNoisy {
		return MinThresholdDB, MaxNoisyThresholdDB
	}
	return MinThresholdDB, MaxThresholdDB
}

// EstimateThreshold combines chunk and window statistics into one threshold.
// Medians resist outlier chunks such as music stings or applause.
//
// A Silent window (the opening minute was digital silence) carries no
// levels, so the chunk medians stand in for its peak and RMS.
func EstimateThreshold(chunks []loudness.ChunkStats, window loudness.WindowStats) Estimate {
	if len(chunks) == 0 {
		class := NoiseClean
		if !window.Silent {
			class = ClassifyNoise(window.DynamicRangeDB)
		}
		minDB, maxDB := Bounds(class)
		return Estimate{
			ThresholdDB: clamp(FallbackThresholdDB, minDB, maxDB),
			NoiseClass:  class,
			Window:      window,
			MinDB:       minDB,
			MaxDB:       maxDB,
			Fallback:    true,
		}
	}

	maxes := make([]float64, len(chunks))
	means := make([]float64, len(chunks))
	for i, c := range chunks {
		maxes[i] = c.MaxVolumeDB
		means[i] = c.MeanVolumeDB
	}
	medianMax, medianMean := median(maxes), median(means)
	if window.Silent {
		window.PeakLevelDB = medianMax
		window.RMSLevelDB = medianMean
		window.DynamicRangeDB = medianMax - medianMean
	}

	class := ClassifyNoise(window.DynamicRangeDB)
	minDB, maxDB := Bounds(class)
	est := Estimate{NoiseClass: class, Window: window, MinDB: minDB, MaxDB: maxDB}
	est.MedianMaxDB = medianMax
	est.MedianMeanDB = medianMean

	p := profiles[class]
	est.Candidates = []Candidate{
		{Name: "max_minus_peak_offset", ValueDB: est.MedianMaxDB - p.peakOffset, Weight: p.peakWeight},
		{Name: "mean_minus_mean_offset", ValueDB: est.MedianMeanDB - p.meanOffset, Weight: p.meanWeight},
		{Name: "rms_minus_rms_offset", ValueDB: window.RMSLevelDB - p.rmsOffset, Weight: p.rmsWeight},
	}
	switch class {
	case NoiseClean:
		est.Candidates = append(est.Candidates, Candidate{Name: "max_aggressive", ValueDB: est.MedianMaxDB - aggressiveOffset, Weight: aggressiveWeight})
	case NoiseNoisy:
		est.Candidates = append(est.Candidates, Candidate{Name: "peak_relative", ValueDB: window.PeakLevelDB - peakRelativeOffset, Weight: peakRelativeWeight})
	}

	var sum, weights float64
	for _, c := range est.Candidates {
		sum += c.ValueDB * c.Weight
		weights += c.Weight
	}
	raw := sum / weights
	est.ThresholdDB = round1(clamp(raw, minDB, maxDB))
	est.Clamped = raw < minDB || raw > maxDB
	return est
}

// Estimator samples a track and estimates its silence threshold.
type Estimator struct {
	sampler *loudness.Sampler
	logger  *slog.Logger
}

// NewEstimator wires an estimator to a loudness sampler.
func NewEstimator(sampler *loudness.Sampler, logger *slog.Logger) *Estimator {
	return &Estimator{sampler: sampler, logger: logging.NewComponentLogger(logger, "silence")}
}

// Estimate samples path and returns the adaptive threshold.
func (e *Estimator) Estimate(ctx context.Context, path string, duration float64) (Estimate, error) {
	window, err := e.sampler.SampleWindow(ctx, path, duration, loudness.DefaultWindowSeconds)
	if err != nil {
		return Estimate{}, err
	}
	chunks, err := e.sampler.SampleChunks(ctx, path, duration)
	if err != nil {
		return Estimate{}, err
	}
	est := EstimateThreshold(chunks, window)

	logger := logging.WithContext(ctx, e.logger)
	reason := "weighted candidates"
	switch {
	case est.Fallback:
		reason = "no measurable chunks, using fallback"
	case est.Clamped:
		reason = "weighted candidates clamped to noise-class bounds"
	}
	attrs := logging.DecisionAttrs("silence_threshold", strconv.FormatFloat(est.ThresholdDB, 'f', 1, 64), reason)
	attrs = append(attrs,
		logging.String("noise_class", string(est.NoiseClass)),
		logging.Float64("dynamic_range_db", est.Window.DynamicRangeDB),
		logging.Float64("median_max_db", est.MedianMaxDB),
		logging.Float64("median_mean_db", est.MedianMeanDB),
		logging.Int("chunks", len(chunks)),
	)
	logger.Info("silence threshold estimated", logging.Args(attrs...)...)
	return est, nil
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

func clamp(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
