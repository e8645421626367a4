package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"timeback/internal/config"
	"timeback/internal/pipeline"
	"timeback/internal/services/whisperx"
	"timeback/internal/transcript"
)

func newMistakesCommand(ctx *commandContext) *cobra.Command {
	var transcriptPath string
	var preset string
	var threshold float64
	var language string
	var noCleanup bool
	var planPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "mistakes <input>",
		Short: "Compute keep segments that cut fillers, repeats, and false starts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("preset") {
				cfg.Mistakes.Preset = strings.ToLower(strings.TrimSpace(preset))
				cfg.Mistakes.ConfidenceThreshold = 0
			}
			if flags.Changed("threshold") {
				cfg.Mistakes.ConfidenceThreshold = threshold
			}
			if flags.Changed("language") {
				cfg.Mistakes.Language = strings.TrimSpace(language)
			}
			if noCleanup {
				cfg.Mistakes.Cleanup = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			input := args[0]
			var words []transcript.Word
			if transcriptPath != "" {
				words, err = transcript.LoadFile(transcriptPath)
			} else {
				words, err = transcribe(cmd, cfg, logger, input)
			}
			if err != nil {
				return err
			}

			engine, closer, err := ctx.engine(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closer()

			result, err := engine.ComputeMistakeKeepSegments(cmd.Context(), words, input, pipeline.MistakeConfigFrom(cfg))
			if err != nil {
				return err
			}
			if err := finishPlan(cmd, ctx, input, result.Duration, result.Keep, planPath, outputPath); err != nil {
				return err
			}
			return emit(cmd, ctx.jsonOutput(), result, func() string {
				var b strings.Builder
				fmt.Fprintf(&b, "Mistakes: %d cut of %d candidate(s), removed %s of %s\n",
					len(result.Mistakes), len(result.Candidates),
					formatSeconds(result.RemovedSeconds), formatSeconds(result.Duration))
				if len(result.Degraded) > 0 {
					fmt.Fprintf(&b, "Degraded detectors: %s\n", strings.Join(result.Degraded, ", "))
				}
				if len(result.Mistakes) > 0 {
					b.WriteString(mistakeTable(result.Mistakes))
					b.WriteString("\n")
				}
				b.WriteString(segmentTable(result.Keep))
				b.WriteString("\n")
				return b.String()
			})
		},
	}

	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "WhisperX word-level JSON (transcribes with WhisperX when omitted)")
	cmd.Flags().StringVar(&preset, "preset", "", "Aggressiveness: conservative, moderate, or aggressive")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum confidence for a mistake to be cut (overrides --preset)")
	cmd.Flags().StringVar(&language, "language", "", "Transcript language code (e.g. en, de)")
	cmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, "Skip the language-model cleanup detector")
	cmd.Flags().StringVar(&planPath, "plan", "", "Write the keep segments to this JSON file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Render the trimmed video to this path")
	return cmd
}

func transcribe(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, input string) ([]transcript.Word, error) {
	svc := whisperx.NewService(whisperx.Config{
		UVXBinary:   cfg.Transcription.UVXBinary,
		Model:       cfg.Transcription.Model,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
	}, cfg.Encoder.FFmpegBinary, logger)
	return svc.TranscribeWords(cmd.Context(), input, cfg.Paths.WorkDir, cfg.Mistakes.Language)
}
