package silence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"timeback/internal/logging"
	"timeback/internal/segments"
)

const (
	// SensitiveOffsetDB lowers the threshold for the second pass.
	SensitiveOffsetDB = 3.0
	// lowCoveragePercent marks a primary pass as possibly missing pauses.
	lowCoveragePercent = 40.0
	// improvementRatio is how much more silence the sensitive pass must find.
	improvementRatio = 1.15
)

// Pass names which detection run was adopted.
type Pass string

const (
	PassPrimary   Pass = "primary"
	PassSensitive Pass = "sensitive"
)

// Verification reports both passes and the adopted one.
type Verification struct {
	Chosen               Pass                `json:"chosen"`
	ThresholdDB          float64             `json:"threshold_db"`
	PrimaryThresholdDB   float64             `json:"primary_threshold_db"`
	SensitiveThresholdDB float64             `json:"sensitive_threshold_db"`
	PrimaryPercent       float64             `json:"primary_percent"`
	SensitivePercent     float64             `json:"sensitive_percent"`
	PrimaryCount         int                 `json:"primary_count"`
	SensitiveCount       int                 `json:"sensitive_count"`
	Reason               string              `json:"reason"`
	Intervals            []segments.Interval `json:"intervals"`
}

// Verifier runs the dual-pass policy.
type Verifier struct {
	detector *Detector
	logger   *slog.Logger
}

// NewVerifier wraps a detector.
func NewVerifier(detector *Detector, logger *slog.Logger) *Verifier {
	return &Verifier{detector: detector, logger: logging.NewComponentLogger(logger, "silence")}
}

// Verify runs the primary and sensitive passes concurrently and adopts one.
// A failed sensitive pass keeps the primary result; a failed primary pass is
// returned as an error.
func (v *Verifier) Verify(ctx context.Context, path string, opts DetectOptions) (Verification, error) {
	sensitiveOpts := opts
	sensitiveOpts.ThresholdDB = opts.ThresholdDB - SensitiveOffsetDB

	var (
		primary, sensitive       []segments.Interval
		primaryErr, sensitiveErr error
		g                        errgroup.Group
	)
	g.Go(func() error {
		primary, primaryErr = v.detector.Detect(ctx, path, opts)
		return nil
	})
	g.Go(func() error {
		sensitive, sensitiveErr = v.detector.Detect(ctx, path, sensitiveOpts)
		return nil
	})
	_ = g.Wait()
	if primaryErr != nil {
		return Verification{}, primaryErr
	}

	result := Verification{
		PrimaryThresholdDB:   opts.ThresholdDB,
		SensitiveThresholdDB: sensitiveOpts.ThresholdDB,
		PrimaryPercent:       Percent(primary, opts.Duration),
		PrimaryCount:         len(primary),
	}
	logger := logging.WithContext(ctx, v.logger)

	if sensitiveErr != nil {
		if errors.Is(sensitiveErr, context.Canceled) {
			return Verification{}, sensitiveErr
		}
		result.adopt(PassPrimary, primary, "sensitive pass failed")
		logging.WarnWithContext(logger, "sensitive silence pass failed", "silence_dual_pass_degraded",
			logging.Error(sensitiveErr),
			logging.String(logging.FieldImpact, "primary threshold kept without verification"),
		)
		return result, nil
	}

	result.SensitivePercent = Percent(sensitive, opts.Duration)
	result.SensitiveCount = len(sensitive)
	useSensitive, reason := ChoosePass(result.PrimaryPercent, result.SensitivePercent, result.PrimaryCount, result.SensitiveCount)
	if useSensitive {
		result.adopt(PassSensitive, sensitive, reason)
	} else {
		result.adopt(PassPrimary, primary, reason)
	}

	attrs := logging.DecisionAttrs("silence_dual_pass", string(result.Chosen), reason)
	attrs = append(attrs,
		logging.Float64("threshold_db", result.ThresholdDB),
		logging.Float64("primary_threshold_db", result.PrimaryThresholdDB),
		logging.Float64("primary_percent", result.PrimaryPercent),
		logging.Float64("sensitive_percent", result.SensitivePercent),
	)
	logger.Info("silence pass selected", logging.Args(attrs...)...)
	return result, nil
}

func (r *Verification) adopt(pass Pass, intervals []segments.Interval, reason string) {
	r.Chosen = pass
	r.Intervals = intervals
	r.Reason = reason
	r.ThresholdDB = r.PrimaryThresholdDB
	if pass == PassSensitive {
		r.ThresholdDB = r.SensitiveThresholdDB
	}
}

// ChoosePass applies the escalation policy. Sensitive wins when the primary
// pass found nothing and the sensitive one found something, or when the
// primary pass covered under 40% and the sensitive one found at least 1.15x
// as much.
func ChoosePass(primaryPct, sensitivePct float64, primaryCount, sensitiveCount int) (bool, string) {
	switch {
	case primaryCount == 0 && sensitiveCount > 0:
		return true, "primary pass found no silence"
	case primaryCount == 0:
		return false, "no silence at either threshold"
	case primaryPct < lowCoveragePercent && sensitivePct >= primaryPct*improvementRatio:
		return true, fmt.Sprintf("primary coverage %.1f%% below %.0f%% and sensitive found %.2fx", primaryPct, lowCoveragePercent, sensitivePct/primaryPct)
	case primaryPct >= lowCoveragePercent:
		return false, "primary coverage sufficient"
	default:
		return false, "sensitive pass not materially better"
	}
}
