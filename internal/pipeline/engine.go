package pipeline

import (
	"context"
	"log/slog"

	"timeback/internal/config"
	"timeback/internal/logging"
	"timeback/internal/loudness"
	"timeback/internal/media/ffmpeg"
	"timeback/internal/media/ffprobe"
	"timeback/internal/mistakes"
	"timeback/internal/services"
	"timeback/internal/silence"
	"timeback/internal/supervisor"
)

// Engine composes the analysis components around one ffmpeg toolchain.
type Engine struct {
	ffprobeBinary string
	runner        ffmpeg.Runner
	estimator     *silence.Estimator
	detector      *silence.Detector
	verifier      *silence.Verifier
	supervisor    *supervisor.Supervisor
	cleaner       mistakes.Cleaner
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunner sets the command runner for ffmpeg and ffprobe analysis passes.
func WithRunner(r ffmpeg.Runner) Option {
	return func(e *Engine) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithSupervisor sets the supervisor used by RunSupervised.
func WithSupervisor(s *supervisor.Supervisor) Option {
	return func(e *Engine) {
		if s != nil {
			e.supervisor = s
		}
	}
}

// WithCleaner enables the cleanup-diff detector.
func WithCleaner(c mistakes.Cleaner) Option {
	return func(e *Engine) {
		e.cleaner = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New builds an Engine for the configured encoder binaries.
func New(enc config.Encoder, opts ...Option) *Engine {
	e := &Engine{
		ffprobeBinary: enc.FFprobeBinary,
		runner:        ffmpeg.ExecRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.supervisor == nil {
		e.supervisor = supervisor.New(nil, supervisor.WithLogger(e.logger))
	}
	sampler := loudness.NewSampler(enc.FFmpegBinary, loudness.WithRunner(e.runner), loudness.WithLogger(e.logger))
	e.estimator = silence.NewEstimator(sampler, e.logger)
	e.detector = silence.NewDetector(enc.FFmpegBinary, e.runner, e.logger)
	e.verifier = silence.NewVerifier(e.detector, e.logger)
	e.logger = logging.NewComponentLogger(e.logger, "pipeline")
	return e
}

// RunSupervised executes an encoder command under the supervision policy.
func (e *Engine) RunSupervised(ctx context.Context, spec supervisor.CommandSpec, cfg supervisor.ProcessConfig) (supervisor.Outcome, error) {
	return e.supervisor.Run(ctx, spec, cfg)
}

// Probe returns the duration of path's audio, failing with ErrAnalysis when
// the file cannot be read or has no audio.
func (e *Engine) Probe(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.InspectWith(ctx, e.runner, e.ffprobeBinary, path)
	if err != nil {
		return 0, services.Wrap(services.ErrAnalysis, "pipeline", "probe", "inspect audio track", err)
	}
	if !result.HasAudio() {
		return 0, services.Wrap(services.ErrAnalysis, "pipeline", "probe", "no audio stream in "+path, nil)
	}
	duration := result.DurationSeconds()
	if duration <= 0 {
		return 0, services.Wrap(services.ErrAnalysis, "pipeline", "probe", "unknown duration for "+path, nil)
	}
	return duration, nil
}
