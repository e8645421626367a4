package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"timeback/internal/logging"
	"timeback/internal/mistakes"
	"timeback/internal/segments"
	"timeback/internal/services"
	"timeback/internal/silence"
	"timeback/internal/transcript"
)

// MistakeResult is the outcome of the mistake path.
type MistakeResult struct {
	Duration float64 `json:"duration"`
	// Candidates is every merged detection before gating.
	Candidates []mistakes.Mistake `json:"candidates"`
	// Mistakes are the candidates that will be cut.
	Mistakes       []mistakes.Mistake     `json:"mistakes"`
	Keep           []segments.KeepSegment `json:"keep"`
	RemovedSeconds float64                `json:"removed_seconds"`
	// Degraded names detectors that failed and contributed nothing.
	Degraded []string `json:"degraded,omitempty"`
}

// ComputeMistakeKeepSegments decides which parts of audioPath to keep when
// cutting speech mistakes found in words. An empty transcript is allowed;
// only the acoustic detector can then contribute. Failing detectors are
// logged and treated as having found nothing.
func (e *Engine) ComputeMistakeKeepSegments(ctx context.Context, words []transcript.Word, audioPath string, cfg MistakeConfig) (MistakeResult, error) {
	ctx = services.WithStage(ctx, "mistakes")
	logger := logging.WithContext(ctx, e.logger)

	duration, err := e.Probe(ctx, audioPath)
	if err != nil {
		return MistakeResult{}, err
	}
	words = transcript.Sanitize(words)
	table := mistakes.NewFillerTable(cfg.Language, cfg.ExtraFillers, cfg.ExtraFillerPhrases)

	var (
		rules, acoustic, cleanup []mistakes.Mistake
		acousticErr, cleanupErr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		rules = mistakes.DetectRules(words, table)
		return nil
	})
	if cfg.Acoustic {
		g.Go(func() error {
			acoustic, acousticErr = e.detectAcoustic(ctx, audioPath, duration, words, table, cfg.Silence)
			return nil
		})
	}
	if cfg.Cleanup && e.cleaner != nil && len(words) > 0 {
		g.Go(func() error {
			detector := mistakes.NewCleanupDetector(e.cleaner, cfg.Categories, cfg.Language, e.logger,
				mistakes.WithChunking(cfg.CleanupChunkWords, cfg.CleanupOverlap))
			cleanup, cleanupErr = detector.Detect(ctx, words, table)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return MistakeResult{}, err
	}

	result := MistakeResult{Duration: duration}
	if acousticErr != nil {
		acoustic = nil
		result.Degraded = append(result.Degraded, string(mistakes.SourceAcoustic))
		degraded(logger, "acoustic", acousticErr)
	}
	if cleanupErr != nil {
		cleanup = nil
		result.Degraded = append(result.Degraded, string(mistakes.SourceCleanup))
		degraded(logger, "cleanup", cleanupErr)
	}

	result.Candidates = mistakes.Merge(rules, acoustic, cleanup)
	result.Mistakes = mistakes.Filter(result.Candidates, cfg.Categories, cfg.Threshold)
	result.Keep = segments.Synthesize(mistakes.Intervals(result.Mistakes), duration, cfg.Shaping)
	if len(result.Keep) == 0 {
		return result, services.Wrap(services.ErrEmptyResult, "pipeline", "mistakes",
			fmt.Sprintf("%d mistake(s) left nothing to keep", len(result.Mistakes)), nil)
	}
	result.RemovedSeconds = duration - segments.TotalDuration(result.Keep)

	attrs := logging.DecisionAttrs("mistake_merge", fmt.Sprintf("%d of %d", len(result.Mistakes), len(result.Candidates)),
		fmt.Sprintf("confidence >= %.2f", cfg.Threshold))
	attrs = append(attrs,
		logging.String(logging.FieldEventType, "mistake_segments"),
		logging.Int("words", len(words)),
		logging.Int("rule_candidates", len(rules)),
		logging.Int("acoustic_candidates", len(acoustic)),
		logging.Int("cleanup_candidates", len(cleanup)),
		logging.Int("keep_segments", len(result.Keep)),
		logging.Float64("removed_seconds", result.RemovedSeconds),
	)
	logger.Info("mistake keep segments computed", logging.Args(attrs...)...)
	return result, nil
}

func (e *Engine) detectAcoustic(ctx context.Context, path string, duration float64, words []transcript.Word, table *mistakes.FillerTable, opts SilenceOptions) ([]mistakes.Mistake, error) {
	threshold, _, _, err := e.resolveThreshold(ctx, path, duration, opts)
	if err != nil {
		return nil, err
	}
	silences, err := e.detector.Detect(ctx, path, silence.DetectOptions{
		ThresholdDB:  threshold,
		MinDuration:  opts.MinDuration,
		SpeechFilter: opts.SpeechFilter,
		Duration:     duration,
	})
	if err != nil {
		return nil, err
	}
	return mistakes.DetectAcoustic(words, silences, duration, table), nil
}

func degraded(logger *slog.Logger, detector string, err error) {
	logging.WarnWithContext(logger, "mistake detector failed", "mistake_detector_degraded",
		logging.String("detector", detector),
		logging.Error(err),
		logging.String(logging.FieldImpact, "detector contributes no candidates"),
	)
}
