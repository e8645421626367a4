package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"timeback/internal/config"
	"timeback/internal/logging"
	"timeback/internal/media/ffmpeg"
	"timeback/internal/media/ffprobe"
	"timeback/internal/segments"
	"timeback/internal/services"
	"timeback/internal/supervisor"
)

// Result summarizes a finished render.
type Result struct {
	Output      string
	Segments    int
	KeptSeconds float64
	HasVideo    bool
	Outcome     supervisor.Outcome
}

// Renderer cuts media files with ffmpeg.
type Renderer struct {
	enc        config.Encoder
	supervisor *supervisor.Supervisor
	probe      ffmpeg.Runner
	logger     *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithProbeRunner swaps the runner used for ffprobe (primarily for tests).
func WithProbeRunner(r ffmpeg.Runner) Option {
	return func(rd *Renderer) {
		if r != nil {
			rd.probe = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rd *Renderer) {
		rd.logger = logging.NewComponentLogger(logger, "render")
	}
}

// New constructs a Renderer. sup runs the encoder.
func New(enc config.Encoder, sup *supervisor.Supervisor, opts ...Option) *Renderer {
	if sup == nil {
		sup = supervisor.New(nil)
	}
	r := &Renderer{
		enc:        enc,
		supervisor: sup,
		probe:      ffmpeg.ExecRunner{},
		logger:     logging.NewComponentLogger(nil, "render"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the kept segments of input to output. An empty segment list
// fails with ErrEmptyResult before the encoder is touched.
func (r *Renderer) Render(ctx context.Context, input, output string, keep []segments.KeepSegment) (Result, error) {
	if len(keep) == 0 {
		return Result{}, services.Wrap(services.ErrEmptyResult, "render", "plan", "no segments to keep", nil)
	}
	if err := validateSegments(keep); err != nil {
		return Result{}, err
	}
	input, output = strings.TrimSpace(input), strings.TrimSpace(output)
	if input == "" || output == "" {
		return Result{}, services.Wrap(services.ErrValidation, "render", "plan", "input and output paths are required", nil)
	}
	if filepath.Clean(input) == filepath.Clean(output) {
		return Result{}, services.Wrap(services.ErrValidation, "render", "plan", "output would overwrite input", nil)
	}

	probe, err := ffprobe.InspectWith(ctx, r.probe, r.enc.FFprobeBinary, input)
	if err != nil {
		return Result{}, services.Wrap(services.ErrAnalysis, "render", "probe", "inspect input", err)
	}
	if !probe.HasAudio() {
		return Result{}, services.Wrap(services.ErrAnalysis, "render", "probe", "input has no audio stream", nil)
	}
	withVideo := probe.HasVideo()

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "render", "prepare", "create output directory", err)
	}
	lock := flock.New(output + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "render", "lock", "acquire output lock", err)
	}
	if !locked {
		return Result{}, services.Wrap(services.ErrValidation, "render", "lock", "output is already being rendered: "+output, nil)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	partial := partialPath(output)
	defer func() { _ = os.Remove(partial) }()

	logger := logging.WithContext(ctx, r.logger)
	logger.Info("render started",
		logging.String(logging.FieldEventType, "render_start"),
		logging.String("input", input),
		logging.String("output", output),
		logging.Int("segments", len(keep)),
		logging.Float64("kept_seconds", segments.TotalDuration(keep)),
		logging.Bool("video", withVideo),
	)

	spec := supervisor.CommandSpec{
		Binary: r.enc.FFmpegBinary,
		Args:   r.args(input, partial, keep, withVideo),
	}
	outcome, err := r.supervisor.Run(ctx, spec, supervisor.ConfigFrom(r.enc))
	if err != nil {
		return Result{Outcome: outcome}, err
	}
	if info, statErr := os.Stat(partial); statErr != nil || info.Size() == 0 {
		return Result{Outcome: outcome}, services.Wrap(services.ErrExternalTool, "render", "encode", "encoder produced no output", statErr)
	}
	if err := os.Rename(partial, output); err != nil {
		return Result{Outcome: outcome}, services.Wrap(services.ErrTransient, "render", "finalize", "move output into place", err)
	}

	result := Result{
		Output:      output,
		Segments:    len(keep),
		KeptSeconds: segments.TotalDuration(keep),
		HasVideo:    withVideo,
		Outcome:     outcome,
	}
	logger.Info("render completed",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", output),
		logging.Int("attempts", outcome.Attempts),
	)
	return result, nil
}

func (r *Renderer) args(input, output string, keep []segments.KeepSegment, withVideo bool) []string {
	args := []string{"-hide_banner", "-nostats", "-nostdin", "-y", "-i", input,
		"-filter_complex", FilterGraph(keep, withVideo)}
	if withVideo {
		args = append(args, "-map", "[outv]",
			"-c:v", r.enc.VideoCodec,
			"-crf", strconv.Itoa(r.enc.CRF),
			"-preset", r.enc.Preset)
	}
	args = append(args, "-map", "[outa]", "-c:a", r.enc.AudioCodec)
	if r.enc.AudioBitrate != "" {
		args = append(args, "-b:a", r.enc.AudioBitrate)
	}
	return append(args, output)
}

func partialPath(output string) string {
	dir, base := filepath.Split(output)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".partial"+ext)
}

func validateSegments(keep []segments.KeepSegment) error {
	prevEnd := 0.0
	for i, seg := range keep {
		if seg.Start < 0 || seg.End <= seg.Start {
			return services.Wrap(services.ErrValidation, "render", "plan", fmt.Sprintf("segment %d is empty or negative", i), nil)
		}
		if i > 0 && seg.Start < prevEnd {
			return services.Wrap(services.ErrValidation, "render", "plan", fmt.Sprintf("segment %d overlaps or is out of order", i), nil)
		}
		prevEnd = seg.End
	}
	return nil
}
