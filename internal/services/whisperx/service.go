package whisperx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"timeback/internal/language"
	"timeback/internal/logging"
	"timeback/internal/services"
	"timeback/internal/transcript"
)

// CommandRunner executes a command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	commandRunner CommandRunner
	logger        *slog.Logger
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary string, logger *slog.Logger) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if strings.TrimSpace(cfg.UVXBinary) == "" {
		cfg.UVXBinary = UVXCommand
	}
	return &Service{
		cfg:           cfg,
		ffmpegBinary:  ffmpegBinary,
		commandRunner: runCommand,
		logger:        logging.NewComponentLogger(logger, "whisperx"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		s.commandRunner = runner
	}
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExtractAudio writes the first audio stream of source to dest as 16 kHz mono
// PCM WAV and checks the result.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) (WAVInfo, error) {
	if err := s.commandRunner(ctx, s.ffmpegBinary, extractArgs(source, dest)...); err != nil {
		return WAVInfo{}, services.Wrap(services.ErrAnalysis, "transcription", "extract audio", filepath.Base(source), err)
	}
	info, err := InspectWAV(dest)
	if err == nil {
		err = checkExtracted(info)
	}
	if err != nil {
		return WAVInfo{}, services.Wrap(services.ErrAnalysis, "transcription", "extract audio", "unusable wav", err)
	}
	return info, nil
}

func extractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn", "-sn", "-dn",
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// TranscribeWords extracts audio from source into workDir, transcribes it and
// returns word-level timings. An empty language lets WhisperX auto-detect.
func (s *Service) TranscribeWords(ctx context.Context, source, workDir, lang string) ([]transcript.Word, error) {
	if strings.TrimSpace(source) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcription", "transcribe", "source path required", nil)
	}
	if workDir == "" {
		return nil, services.Wrap(services.ErrValidation, "transcription", "transcribe", "work dir required", nil)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcription", "transcribe", "ensure work dir", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	wavPath := filepath.Join(workDir, baseName+".whisperx.wav")
	info, err := s.ExtractAudio(ctx, source, wavPath)
	if err != nil {
		return nil, err
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("transcribing audio",
		logging.String("model", s.Model()),
		logging.Bool("cuda", s.cfg.CUDAEnabled),
		logging.Duration("audio_duration", info.Duration),
	)
	if err := s.commandRunner(ctx, s.cfg.UVXBinary, s.buildArgs(wavPath, workDir, lang)...); err != nil {
		return nil, services.Wrap(services.ErrService, "transcription", "whisperx", "", err)
	}

	jsonPath := strings.TrimSuffix(wavPath, filepath.Ext(wavPath)) + ".json"
	words, err := transcript.LoadFile(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrService, "transcription", "load output", "", err)
	}
	logger.Info("transcription complete", logging.Int("words", len(words)))
	return words, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, lang string) []string {
	args := make([]string, 0, 40)
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if iso := language.ToISO2(lang); iso != "" {
		args = append(args, "--language", iso)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}
