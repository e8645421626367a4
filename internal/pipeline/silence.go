package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"timeback/internal/logging"
	"timeback/internal/segments"
	"timeback/internal/services"
	"timeback/internal/silence"
)

// Threshold sources.
const (
	ThresholdOverride = "override"
	ThresholdAdaptive = "adaptive"
	ThresholdFallback = "fallback"
)

// SilenceResult is the outcome of the silence path.
type SilenceResult struct {
	Duration        float64                `json:"duration"`
	ThresholdDB     float64                `json:"threshold_db"`
	ThresholdSource string                 `json:"threshold_source"`
	Estimate        *silence.Estimate      `json:"estimate,omitempty"`
	Verification    *silence.Verification  `json:"verification,omitempty"`
	Silences        []segments.Interval    `json:"silences"`
	Keep            []segments.KeepSegment `json:"keep"`
	RemovedSeconds  float64                `json:"removed_seconds"`
}

// ComputeSilenceKeepSegments decides which parts of audioPath to keep when
// cutting silence.
func (e *Engine) ComputeSilenceKeepSegments(ctx context.Context, audioPath string, opts SilenceOptions) (SilenceResult, error) {
	ctx = services.WithStage(ctx, "silence")
	logger := logging.WithContext(ctx, e.logger)

	duration, err := e.Probe(ctx, audioPath)
	if err != nil {
		return SilenceResult{}, err
	}
	result := SilenceResult{Duration: duration}

	threshold, source, est, err := e.resolveThreshold(ctx, audioPath, duration, opts)
	if err != nil {
		return SilenceResult{}, err
	}
	result.ThresholdDB, result.ThresholdSource, result.Estimate = threshold, source, est

	detect := silence.DetectOptions{
		ThresholdDB:  threshold,
		MinDuration:  opts.MinDuration,
		SpeechFilter: opts.SpeechFilter,
		Duration:     duration,
	}
	if opts.DualPass {
		verification, err := e.verifier.Verify(ctx, audioPath, detect)
		if err != nil {
			return SilenceResult{}, err
		}
		result.Verification = &verification
		result.ThresholdDB = verification.ThresholdDB
		result.Silences = verification.Intervals
	} else {
		result.Silences, err = e.detector.Detect(ctx, audioPath, detect)
		if err != nil {
			return SilenceResult{}, err
		}
	}

	result.Keep = segments.Synthesize(result.Silences, duration, opts.Shaping)
	if len(result.Keep) == 0 {
		return result, services.Wrap(services.ErrEmptyResult, "pipeline", "silence",
			fmt.Sprintf("%d silence(s) left nothing to keep", len(result.Silences)), nil)
	}
	result.RemovedSeconds = duration - segments.TotalDuration(result.Keep)

	logger.Info("silence keep segments computed",
		logging.String(logging.FieldEventType, "silence_segments"),
		logging.Float64("threshold_db", result.ThresholdDB),
		logging.String("threshold_source", source),
		logging.Int("silences", len(result.Silences)),
		logging.Int("keep_segments", len(result.Keep)),
		logging.Float64("removed_seconds", result.RemovedSeconds),
	)
	return result, nil
}

// resolveThreshold picks the override, the adaptive estimate, or the
// fallback, in that order.
func (e *Engine) resolveThreshold(ctx context.Context, path string, duration float64, opts SilenceOptions) (float64, string, *silence.Estimate, error) {
	if opts.ThresholdDB != 0 {
		return opts.ThresholdDB, ThresholdOverride, nil, nil
	}
	if !opts.AutoThreshold {
		return silence.FallbackThresholdDB, ThresholdFallback, nil, nil
	}
	est, err := e.estimator.Estimate(ctx, path, duration)
	if err != nil {
		return 0, "", nil, err
	}
	source := ThresholdAdaptive
	if est.Fallback {
		source = ThresholdFallback
	}
	logging.WithContext(ctx, e.logger).Debug("silence threshold resolved",
		logging.Args(logging.DecisionAttrs("threshold_source", source, strconv.FormatFloat(est.ThresholdDB, 'f', 1, 64))...)...)
	return est.ThresholdDB, source, &est, nil
}

// ThresholdReport is the standalone output of the threshold estimator.
type ThresholdReport struct {
	Duration float64          `json:"duration"`
	Estimate silence.Estimate `json:"estimate"`
}

// EstimateThreshold probes audioPath and runs only the adaptive estimator.
func (e *Engine) EstimateThreshold(ctx context.Context, audioPath string) (ThresholdReport, error) {
	ctx = services.WithStage(ctx, "threshold")
	duration, err := e.Probe(ctx, audioPath)
	if err != nil {
		return ThresholdReport{}, err
	}
	est, err := e.estimator.Estimate(ctx, audioPath, duration)
	if err != nil {
		return ThresholdReport{}, err
	}
	return ThresholdReport{Duration: duration, Estimate: est}, nil
}
