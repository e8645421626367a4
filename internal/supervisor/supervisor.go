package supervisor

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"golang.org/x/sys/unix"

	"timeback/internal/config"
	"timeback/internal/logging"
	"timeback/internal/media/ffmpeg"
	"timeback/internal/services"
)

// DefaultKillGrace is how long a child may take to exit after SIGTERM.
const DefaultKillGrace = 5 * time.Second

// ProcessConfig is the per-invocation supervision policy. MaxAttempts counts
// every attempt, including the first. A zero Timeout disables the deadline.
type ProcessConfig struct {
	Timeout     time.Duration
	KillGrace   time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// ConfigFrom builds a ProcessConfig from the encoder settings.
func ConfigFrom(enc config.Encoder) ProcessConfig {
	return ProcessConfig{
		Timeout:     time.Duration(enc.TimeoutSeconds) * time.Second,
		KillGrace:   time.Duration(enc.KillGraceSeconds) * time.Second,
		MaxAttempts: enc.MaxAttempts,
		BaseBackoff: time.Duration(enc.BackoffSeconds) * time.Second,
		MaxBackoff:  time.Duration(enc.MaxBackoffSeconds) * time.Second,
	}
}

func (c ProcessConfig) normalized() ProcessConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.KillGrace <= 0 {
		c.KillGrace = DefaultKillGrace
	}
	if c.MaxBackoff > 0 && c.BaseBackoff > c.MaxBackoff {
		c.BaseBackoff = c.MaxBackoff
	}
	return c
}

// backoff returns the wait before attempt+1.
func (c ProcessConfig) backoff(attempt int) time.Duration {
	if c.BaseBackoff <= 0 {
		return 0
	}
	d := c.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if c.MaxBackoff > 0 && d >= c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	return d
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Supervisor runs commands under a ProcessConfig.
type Supervisor struct {
	registry *Registry
	launcher Launcher
	sleep    Sleeper
	logger   *slog.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLauncher swaps the process launcher (primarily for tests).
func WithLauncher(l Launcher) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.launcher = l
		}
	}
}

// WithSleeper swaps the backoff sleeper (primarily for tests).
func WithSleeper(fn Sleeper) Option {
	return func(s *Supervisor) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logging.NewComponentLogger(logger, "supervisor")
	}
}

// New constructs a Supervisor that records children in registry.
func New(registry *Registry, opts ...Option) *Supervisor {
	if registry == nil {
		registry = NewRegistry()
	}
	s := &Supervisor{
		registry: registry,
		launcher: ExecLauncher{},
		sleep:    sleepContext,
		logger:   logging.NewComponentLogger(nil, "supervisor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry children are recorded in.
func (s *Supervisor) Registry() *Registry { return s.registry }

// Run executes spec, retrying transient failures (timeouts, SIGTERM, OS
// kills) with exponential backoff until MaxAttempts is reached. A non-zero
// exit or a launch failure is returned at once. The returned Outcome
// describes the last attempt.
func (s *Supervisor) Run(ctx context.Context, spec CommandSpec, cfg ProcessConfig) (Outcome, error) {
	cfg = cfg.normalized()
	logger := logging.WithContext(ctx, s.logger).With(logging.String("binary", spec.Binary))

	var outcome Outcome
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		var err error
		outcome, err = s.attempt(ctx, logger, spec, cfg)
		outcome.Attempts = attempt
		if err != nil {
			return outcome, err
		}
		if outcome.Success {
			logger.Debug("supervised command completed", logging.Int("attempt", attempt))
			return outcome, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome, services.Wrap(services.ErrTimeout, "supervisor", spec.Binary, "cancelled", ctxErr)
		}
		if !outcome.Retryable || attempt == cfg.MaxAttempts {
			break
		}

		wait := cfg.backoff(attempt)
		logging.WarnWithContext(logger, "supervised command failed; retrying", "supervisor_retry",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", cfg.MaxAttempts),
			logging.String("state", string(outcome.State)),
			logging.String("signal", outcome.Signal),
			logging.Bool("memory_killed", outcome.MemoryKilled),
			logging.Duration("backoff", wait),
			logging.String(logging.FieldImpact, "encode restarts from the beginning"),
		)
		if err := s.sleep(ctx, wait); err != nil {
			return outcome, services.Wrap(services.ErrTimeout, "supervisor", spec.Binary, "cancelled during backoff", err)
		}
	}

	err := outcome.Err(spec.Binary)
	logging.ErrorWithContext(logger, "supervised command failed", "supervisor_failure",
		logging.Int("attempts", outcome.Attempts),
		logging.String("state", string(outcome.State)),
		logging.Int("exit_code", outcome.ExitCode),
		logging.String("signal", outcome.Signal),
		logging.Bool("retryable", outcome.Retryable),
		logging.Error(err),
	)
	return outcome, err
}

// attempt runs one Idle -> Running -> terminal transition. The error return
// is reserved for launch failures.
func (s *Supervisor) attempt(ctx context.Context, logger *slog.Logger, spec CommandSpec, cfg ProcessConfig) (Outcome, error) {
	var stderr bytes.Buffer
	proc, err := s.launcher.Start(ctx, spec, &stderr)
	if err != nil {
		return Outcome{State: StateFailed}, services.Wrap(services.ErrExternalTool, "supervisor", spec.Binary, "start process", err)
	}
	s.registry.Register(proc)
	defer s.registry.Deregister(proc)
	logger.Debug("supervised command running", logging.Int("pid", proc.Pid()), logging.String("state", string(StateRunning)))

	done := make(chan Exit, 1)
	go func() { done <- proc.Wait() }()

	var deadline <-chan time.Time
	if cfg.Timeout > 0 {
		timer := time.NewTimer(cfg.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	var (
		exit     Exit
		timedOut bool
		forced   bool
	)
	select {
	case exit = <-done:
	case <-deadline:
		timedOut = true
		exit, forced = s.terminate(logger, proc, done, cfg.KillGrace, "timeout")
	case <-ctx.Done():
		exit, forced = s.terminate(logger, proc, done, cfg.KillGrace, "cancelled")
	}

	outcome := classify(exit, timedOut, forced)
	outcome.StderrTail = ffmpeg.Tail(stderr.String(), 6)
	return outcome, nil
}

// terminate sends SIGTERM, then SIGKILL if the child outlives grace.
func (s *Supervisor) terminate(logger *slog.Logger, proc Process, done <-chan Exit, grace time.Duration, reason string) (Exit, bool) {
	logger.Info("terminating supervised command",
		logging.Int("pid", proc.Pid()),
		logging.String("reason", reason),
		logging.Duration("grace", grace),
	)
	if err := proc.Signal(unix.SIGTERM); err != nil {
		logger.Debug("sigterm failed", logging.Error(err))
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case exit := <-done:
		return exit, false
	case <-timer.C:
	}
	logging.WarnWithContext(logger, "supervised command ignored sigterm", "supervisor_force_kill",
		logging.Int("pid", proc.Pid()),
		logging.String(logging.FieldImpact, "process group killed"),
	)
	if err := proc.Signal(unix.SIGKILL); err != nil {
		logger.Debug("sigkill failed", logging.Error(err))
	}
	return <-done, true
}
